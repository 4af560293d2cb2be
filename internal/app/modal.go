package app

import (
	"fmt"
	"strings"

	"resumegrade/internal/errors"
	"resumegrade/internal/presentation"
)

// Credential modal messages
const (
	MsgInvalidKey = "Please enter a valid API key"
	MsgKeySaved   = "API key saved successfully!"
)

// InvalidKeyFormatMessage is shown when a key lacks the provider's prefix
func (c *Controller) InvalidKeyFormatMessage() string {
	return fmt.Sprintf("Invalid API key format. %s keys start with \"%s\"", c.keyFormat.Label, c.keyFormat.Prefix)
}

// Modal returns the credential modal state
func (c *Controller) Modal() presentation.ModalView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// CredentialSet reports whether a key is available
func (c *Controller) CredentialSet() bool {
	return c.creds.Has()
}

// OpenModal shows the credential modal, prefilled with the mask when a key exists
func (c *Controller) OpenModal() {
	prefill := ""
	if c.creds.Has() {
		prefill = presentation.CredentialMask
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = presentation.ModalView{Open: true, Prefill: prefill}
}

// CloseModal hides the credential modal and discards its input
func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = presentation.ModalView{}
}

// ValidateCredential applies the modal's input rules to a trimmed key
func (c *Controller) ValidateCredential(input string) error {
	key := strings.TrimSpace(input)

	if err := c.validate.Var(key, "required,ne="+presentation.CredentialMask); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidAPIKey, MsgInvalidKey, err)
	}
	if err := c.validate.Var(key, "startswith="+c.keyFormat.Prefix); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidKeyFormat, c.InvalidKeyFormatMessage(), err)
	}
	return nil
}

// SaveCredential validates and stores a key entered in the modal. A rejected
// key raises an error banner and leaves the modal open.
func (c *Controller) SaveCredential(input string) error {
	if err := c.ValidateCredential(input); err != nil {
		c.view.ShowBannerError(errors.UserMessage(err))
		return err
	}

	if err := c.creds.Save(strings.TrimSpace(input)); err != nil {
		c.logger.LogError(err, "Failed to save credential")
		c.view.ShowBannerError(errors.UserMessage(err))
		return err
	}

	c.CloseModal()
	c.view.ShowSuccess(MsgKeySaved)
	c.logger.Info("Credential saved")
	return nil
}

// ClearCredential removes the stored key and closes the modal
func (c *Controller) ClearCredential() error {
	if err := c.creds.Clear(); err != nil {
		c.logger.LogError(err, "Failed to clear credential")
		c.view.ShowBannerError(errors.UserMessage(err))
		return err
	}

	c.CloseModal()
	c.logger.Info("Credential cleared")
	return nil
}
