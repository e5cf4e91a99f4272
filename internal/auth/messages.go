package auth

import (
	"bitwise74/auth-api/internal/model"
	"fmt"
	"time"
)

func codeMessage(app string, purpose model.Purpose, code string, ttl time.Duration) (subject, body string) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)

	switch purpose {
	case model.PurposeRegistration:
		subject = fmt.Sprintf("Verify your email to start using %s", app)
		body = fmt.Sprintf("Your verification code is <b>%s</b>.<br><br>It expires in %d minutes.", code, minutes)
	case model.PurposeLogin2FA:
		subject = fmt.Sprintf("Your %s login code", app)
		body = fmt.Sprintf("Someone (hopefully you) is signing in to %s. Your login code is <b>%s</b>.<br><br>It expires in %d minutes. If this wasn't you, change your password.", app, code, minutes)
	case model.PurposePasswordReset:
		subject = fmt.Sprintf("Reset your %s password", app)
		body = fmt.Sprintf("Your password reset code is <b>%s</b>.<br><br>It expires in %d minutes. If you didn't ask for a reset you can ignore this email.", code, minutes)
	default:
		subject = fmt.Sprintf("Your %s code", app)
		body = fmt.Sprintf("Your code is <b>%s</b>. It expires in %d minutes.", code, minutes)
	}

	return subject, body
}
