package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

var avatarTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Avatar is an uploaded image that passed validation
type Avatar struct {
	Data      []byte
	MIME      string
	Extension string
}

// AvatarValidator checks the size and the actual content of an uploaded
// avatar. The declared Content-Type is never trusted.
func AvatarValidator(fh *multipart.FileHeader, maxSize int64) (int, *Avatar, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}
	defer f.Close()

	return ReadAvatar(f, maxSize)
}

// ReadAvatar reads at most maxSize bytes from r and sniffs the image type
func ReadAvatar(r io.Reader, maxSize int64) (int, *Avatar, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	if int64(len(data)) > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	if len(data) == 0 {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	mime := mimetype.Detect(data)
	if !slices.ContainsFunc(avatarTypes, mime.Is) {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	return 0, &Avatar{
		Data:      data,
		MIME:      mime.String(),
		Extension: mime.Extension(),
	}, nil
}
