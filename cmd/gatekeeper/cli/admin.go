package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create, list and enable admin accounts directly in the store, bypassing email activation.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminEnableCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		req     model.RegisterRequest
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Example: `  gatekeeper admin create --email bigcat@example.com --name bigcat --phone 13812345678
  gatekeeper admin create --email ops@example.com --name ops --phone 13900000000 --pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), req, pending)
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&req.AdminName, "name", "", "Admin display name (required)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Mobile number (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().BoolVar(&pending, "pending", false, "Leave the account unactivated")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")

	return cmd
}

func runAdminCreate(ctx context.Context, req model.RegisterRequest, pending bool) error {
	if req.Password == "" {
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		req.Password = pw
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid admin: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	material, err := keys.Load(cfg.Keys.Dir)
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	admin := &model.Admin{
		RoleID:       model.DefaultRoleID,
		Name:         req.AdminName,
		PasswordHash: service.NewCredentialHasher(material.PasswordKeyDER()).Hash(req.Password),
		Email:        req.Email,
		Phone:        req.Phone,
		Enabled:      model.AdminEnabled,
	}
	if pending {
		admin.Enabled = model.AdminPending
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrDuplicate) {
			return fmt.Errorf("an admin with email %q already exists", req.Email)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created admin %d (%s, %s)\n", admin.ID, admin.Email, adminStatus(admin))
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	admins, err := store.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No admin accounts. Use 'gatekeeper admin create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-30s %-20s %-13s %-8s\n", "ID", "EMAIL", "NAME", "PHONE", "STATUS")
	fmt.Printf("%-6s %-30s %-20s %-13s %-8s\n", "--", "-----", "----", "-----", "------")
	for i := range admins {
		a := &admins[i]
		fmt.Printf("%-6d %-30s %-20s %-13s %-8s\n", a.ID, a.Email, a.Name, a.Phone, adminStatus(a))
	}
	return nil
}

// ---------- admin enable ----------

func newAdminEnableCmd() *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "enable <admin_id>",
		Short: "Mark an admin as activated (or pending with --disable)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid admin id %q", args[0])
			}
			return runAdminEnable(cmd.Context(), id, !disable)
		},
	}

	cmd.Flags().BoolVar(&disable, "disable", false, "Return the admin to the pending state")

	return cmd
}

func runAdminEnable(ctx context.Context, id int64, enable bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	flag := model.AdminEnabled
	if !enable {
		flag = model.AdminPending
	}
	if err := store.SetAdminEnabled(ctx, id, flag); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("admin %d not found", id)
		}
		return err
	}
	admin, err := store.GetAdmin(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Admin %d (%s) is now %s\n", admin.ID, admin.Email, adminStatus(admin))
	return nil
}

func adminStatus(a *model.Admin) string {
	if a.IsEnabled() {
		return "enabled"
	}
	return "pending"
}
