package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage RSA key material",
		Long: `Manage the two RSA key pairs Gatekeeper needs: one keys the credential hash,
the other signs bearer tokens.`,
	}

	cmd.AddCommand(newKeysGenerateCmd())
	cmd.AddCommand(newKeysShowCmd())

	return cmd
}

// ---------- keys generate ----------

func newKeysGenerateCmd() *cobra.Command {
	var (
		dir   string
		bits  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a fresh password-hash and token-signing key set",
		Long: `Write four PEM files into the key directory. Regenerating the password key
invalidates every stored credential hash; regenerating the signing key invalidates
every issued token.`,
		Example: `  gatekeeper keys generate
  gatekeeper keys generate --dir /etc/gatekeeper/key --bits 4096 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.Keys.Dir
			}
			if err := keys.Generate(dir, bits, force); err != nil {
				return err
			}
			fmt.Printf("Wrote key set to %s\n", dir)
			for _, name := range []string{keys.PasswordPrivateFile, keys.PasswordPublicFile, keys.JWTPrivateFile, keys.JWTPublicFile} {
				fmt.Printf("  %s\n", filepath.Join(dir, name))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Key directory (default: keys.dir from config)")
	cmd.Flags().IntVar(&bits, "bits", keys.DefaultBits, "RSA modulus size")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing key files")

	return cmd
}

// ---------- keys show ----------

func newKeysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Load the key set and print the signing key id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := keys.Load(cfg.Keys.Dir)
			if err != nil {
				return err
			}
			fmt.Printf("Key directory: %s\n", cfg.Keys.Dir)
			fmt.Printf("  kid:           %s\n", m.KeyID())
			fmt.Printf("  signing bits:  %d\n", m.SigningKey().N.BitLen())
			fmt.Printf("  password bits: %d\n", m.PasswordKey().N.BitLen())
			return nil
		},
	}
}
