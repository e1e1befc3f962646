package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wardenhq/warden/internal/crypto"
	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long:  "Create and list user accounts directly against the configured database.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())

	return cmd
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		username string
		password string
		level    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account, or reset it if the username exists",
		Example: `  warden user create --username admin --level administrator
  warden user create --username alice --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(username, password, level)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&level, "level", "user", "Access level: user, support, moderator, administrator")
	cmd.MarkFlagRequired("username")

	return cmd
}

func runUserCreate(username, password, levelName string) error {
	level, err := model.ParseAccessLevel(levelName)
	if err != nil {
		return err
	}

	// Prompt for password if not provided
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if string(pwBytes) != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
		password = string(pwBytes)
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	users := store.NewUserStore(st)

	hash, err := crypto.Convert(crypto.Plaintext(password), model.PasswordCost())
	if err != nil {
		return err
	}

	// Reset the account if the username is already taken.
	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		if _, err := users.Update(ctx, existing.ID, store.Fields{
			"password":     model.NewPassword(hash),
			"access_level": int(level),
		}); err != nil {
			return err
		}
		fmt.Printf("Updated existing user %q (access level %s)\n", username, level)
		return nil
	}

	user := &model.User{
		Username:    username,
		Password:    model.NewPassword(hash),
		AccessLevel: level,
	}
	if err := users.Create(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Created user %q (id %d, access level %s)\n", username, user.ID, level)
	return nil
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(jsonOutput, limit, offset)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of users to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of users to skip")

	return cmd
}

func runUserList(jsonOutput bool, limit, offset int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	users := store.NewUserStore(st)
	list, err := users.GetAll(context.Background(),
		store.OrderBy(store.Order{Column: "id"}),
		store.Limit(limit),
		store.Offset(offset),
	)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No user accounts found. Use 'warden user create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-24s %-16s %-20s\n", "ID", "USERNAME", "LEVEL", "CREATED")
	fmt.Printf("%-6s %-24s %-16s %-20s\n", "--", "--------", "-----", "-------")
	for _, u := range list {
		fmt.Printf("%-6d %-24s %-16s %-20s\n",
			u.ID, u.Username, u.AccessLevel.String(), u.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
