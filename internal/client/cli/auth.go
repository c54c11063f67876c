package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Device Registration ===")
	c.io.Println()

	deviceID, err := c.store.DeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device id: %w", err)
	}

	deviceName, err := c.io.ReadInput("Device name (e.g., 'office-laptop'): ")
	if err != nil {
		return fmt.Errorf("failed to read device name: %w", err)
	}

	secret, err := c.io.ReadPassword("Device secret (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm device secret: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	if secret != confirm {
		return fmt.Errorf("secrets do not match")
	}

	c.io.Println()
	c.io.Println("Registering device...")

	resp, err := c.apiClient.Register(ctx, api.RegisterRequest{
		DeviceName: deviceName,
		DeviceID:   deviceID,
		Secret:     secret,
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Registration successful!")
	c.io.Printf("Device ID: %s\n", resp.DeviceID)
	c.io.Println()
	c.io.Println("Run 'fieldkeeper login' to start synchronizing.")

	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	deviceID, err := c.store.DeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device id: %w", err)
	}

	secret, err := c.io.ReadPassword("Device secret: ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	resp, err := c.apiClient.Login(ctx, api.LoginRequest{
		DeviceID: deviceID,
		Secret:   secret,
	})
	if err != nil {
		return err
	}

	session := &storage.Session{
		ExpiresAt:   time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		AccessToken: resp.AccessToken,
	}
	if err := c.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.io.Println()
	c.io.Println("Login successful!")
	c.io.Printf("Access token expires in: %d seconds\n", resp.ExpiresIn)
	c.io.Println()
	c.io.Println("Queued offline changes will be sent on the next sync cycle.")

	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("Logout successful!")
	c.io.Println("Local records are kept; queued changes wait for the next login.")

	return nil
}
