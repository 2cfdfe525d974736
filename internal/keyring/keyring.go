// Package keyring stores the resident's self-service credential pair in the
// OS keyring so the login form can be prefilled on the next visit.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no credential is stored
	ErrNotFound = errors.New("credential not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetCredential retrieves the stored subject id and secret.
// Returns ErrNotFound if nothing is stored.
func GetCredential() (string, string, error) {
	raw, err := keyring.Get(constants.AppName, constants.DefaultKeyringAccount)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	subject, secret, ok := strings.Cut(raw, "\n")
	if !ok {
		return "", "", ErrNotFound
	}
	return subject, secret, nil
}

// SetCredential stores the subject id and secret pair.
func SetCredential(subjectID, secret string) error {
	if subjectID == "" {
		return errors.New("subject id cannot be empty")
	}
	err := keyring.Set(constants.AppName, constants.DefaultKeyringAccount, subjectID+"\n"+secret)
	if err != nil {
		return fmt.Errorf("failed to store credential in keyring: %w", err)
	}
	return nil
}

// DeleteCredential removes the stored pair.
func DeleteCredential() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringAccount)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credential from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || err == keyring.ErrNotFound
}
