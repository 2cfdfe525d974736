package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/maltehallstrom/boka/internal/constants"
)

// NewLoginForm creates the self-service credential form
func NewLoginForm(fm *LoginFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Apartment ID").
				Value(&fm.SubjectID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("apartment id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Secret),
			huh.NewConfirm().
				Title("Remember on this device?").
				Value(&fm.Remember),
		),
	)
}

// NewPasswordForm creates the change-password form
func NewPasswordForm(fm *PasswordFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.NewSecret).
				Validate(func(s string) error {
					if len(s) < constants.MinSecretLength {
						return fmt.Errorf("password must be at least %d characters", constants.MinSecretLength)
					}
					return nil
				}),
		),
	)
}
