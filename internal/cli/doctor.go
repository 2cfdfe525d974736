package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/keyring"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false

	// Check 1: backend reachable
	if err := checkBackend(ctx); err != nil {
		fmt.Printf("❌ Backend reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Backend reachable: OK\n")
	}

	// Check 2: preferences database
	if err := checkPrefs(ctx); err != nil {
		fmt.Printf("❌ Preferences database: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Preferences database: OK\n")
	}

	// Check 3: keyring availability (warning only; front-desk mode never
	// touches it)
	if !keyring.IsAvailable() {
		fmt.Printf("⚠ Keyring: WARNING\n")
		fmt.Printf("   No system keyring; stored credentials are unavailable\n")
	} else {
		fmt.Printf("✓ Keyring: OK\n")
	}

	// Check 4: clock sanity
	if err := checkClock(); err != nil {
		fmt.Printf("❌ Clock: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock: OK\n")
	}

	// Check 5: duplicate kiosk instance (warning only)
	if err := checkDuplicateInstance(); err != nil {
		fmt.Printf("⚠ Single instance: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Single instance: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkBackend(ctx *Context) error {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctx.Client.Health(c); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func checkPrefs(ctx *Context) error {
	if err := os.MkdirAll(filepath.Dir(ctx.ConfigPath), 0755); err != nil {
		return fmt.Errorf("config directory: %w", err)
	}
	if _, err := ctx.Prefs.Get(constants.PrefKeyMode); err != nil {
		return fmt.Errorf("reading preferences: %w", err)
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

// checkDuplicateInstance scans the process table for another running kiosk.
// Two instances sharing a screen and a preferences database is always a
// deployment mistake.
func checkDuplicateInstance() error {
	procs, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("listing processes: %w", err)
	}
	self := os.Getpid()
	count := 0
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name := strings.TrimSuffix(p.Executable(), ".exe")
		if name == constants.AppName {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("found %d other running %s process(es)", count, constants.AppName)
	}
	return nil
}
