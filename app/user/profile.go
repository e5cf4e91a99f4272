package user

import (
	"bitwise74/auth-api/internal"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileBody struct {
	Name          *string         `json:"name" binding:"omitempty,max=64"`
	Age           *int            `json:"age" binding:"omitempty,min=13,max=150"`
	City          *string         `json:"city" binding:"omitempty,max=64"`
	Pronouns      *string         `json:"pronouns" binding:"omitempty,max=32"`
	Bio           *string         `json:"bio" binding:"omitempty,max=500"`
	Format        *string         `json:"format" binding:"omitempty,max=32"`
	Visibility    *string         `json:"visibility" binding:"omitempty,oneof=public private"`
	Interests     *[]string       `json:"interests" binding:"omitempty,max=20,dive,max=32"`
	Notifications map[string]bool `json:"notifications" binding:"omitempty,max=16"`
}

func profileJSON(d *internal.Deps, u *model.User) gin.H {
	return gin.H{
		"user":      u,
		"avatarURL": d.Avatars.URL(u.AvatarKey),
	}
}

// UserMe returns the account of the logged in user
func UserMe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	u, err := d.Store.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, requestID, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, profileJSON(d, u))
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data profileBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	u, err := d.Store.UpdateProfile(c.Request.Context(), userID, &store.ProfileUpdate{
		Name:          data.Name,
		Age:           data.Age,
		City:          data.City,
		Pronouns:      data.Pronouns,
		Bio:           data.Bio,
		Format:        data.Format,
		Visibility:    data.Visibility,
		Interests:     data.Interests,
		Notifications: data.Notifications,
	})
	if err != nil {
		fail(c, requestID, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, profileJSON(d, u))
}

// UserFetch returns the public part of someone's profile. Private and
// unverified accounts look like they don't exist.
func UserFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	u, err := d.Store.FindUserByID(c.Request.Context(), c.Param("id"))
	if err == nil && (!u.Verified || u.Visibility == model.VisibilityPrivate) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "user_not_found",
			"requestID": requestID,
		})
		return
	}
	if err != nil {
		fail(c, requestID, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      u.Public(),
		"avatarURL": d.Avatars.URL(u.AvatarKey),
	})
}
