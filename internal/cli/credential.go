package cli

import (
	"errors"
	"fmt"

	"github.com/maltehallstrom/boka/internal/keyring"
)

type CredentialSetCmd struct {
	SubjectID string `arg:"" help:"Apartment id to store."`
	Secret    string `arg:"" help:"Password to store."`
}

func (c *CredentialSetCmd) Run(ctx *Context) error {
	if err := keyring.SetCredential(c.SubjectID, c.Secret); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	fmt.Println("Credential stored.")
	return nil
}

type CredentialClearCmd struct{}

func (c *CredentialClearCmd) Run(ctx *Context) error {
	err := keyring.DeleteCredential()
	if errors.Is(err, keyring.ErrNotFound) {
		fmt.Println("No credential stored.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	fmt.Println("Credential cleared.")
	return nil
}
