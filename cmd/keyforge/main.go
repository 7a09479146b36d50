package main

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/keyforge/keyforge/internal/blobstore"
	"github.com/keyforge/keyforge/internal/config"
	"github.com/keyforge/keyforge/internal/export"
	"github.com/keyforge/keyforge/internal/keyforge/gpg"
	"github.com/keyforge/keyforge/internal/keyforge/keykind"
	"github.com/keyforge/keyforge/internal/keyforge/session"
	"github.com/keyforge/keyforge/internal/keyforge/totp"
	"github.com/keyforge/keyforge/internal/recovery"
	"github.com/keyforge/keyforge/internal/util"
	"github.com/keyforge/keyforge/internal/vaultstore"
)

var version = "dev"

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		switch <-sigCh {
		case syscall.SIGTERM:
			os.Exit(143)
		default:
			os.Exit(130)
		}
	}()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		userLabel string
		userVer   uint
		outFormat string
	)

	root := &cobra.Command{
		Use:     "keyforge",
		Version: version,
		Short:   "Deterministic key-material factory with an authenticated local vault",
		Long:    "keyforge derives SSH, GPG, wallet, and TOTP key material from a single passphrase, and keeps public metadata about what it derived in an encrypted local vault.",
	}
	root.PersistentFlags().StringVar(&userLabel, "user-label", "", "identity label (default \"default\")")
	root.PersistentFlags().UintVar(&userVer, "version-tag", 0, "derivation version (default 1)")
	root.PersistentFlags().StringVar(&outFormat, "format", "json", "output format: json|yaml")

	cfg, err := config.Load(nil)
	if err != nil {
		cfg = &config.Config{}
	}

	root.AddCommand(newInitCmd(cfg))
	root.AddCommand(newGenerateCmd(&userLabel, &userVer, &outFormat, cfg))
	root.AddCommand(newVaultCmd(&userLabel, &userVer, &outFormat, cfg))
	root.AddCommand(newPassCmd(&userLabel, &userVer, &outFormat, cfg))
	root.AddCommand(newTOTPCmd(&userLabel, &userVer, &outFormat, cfg))
	root.AddCommand(newExportCmd(&userLabel, &userVer, cfg))
	root.AddCommand(newImportCmd(&userLabel, &userVer, cfg))
	root.AddCommand(newRecoverCmd(&userLabel, &userVer, &outFormat))
	root.AddCommand(newConfigCmd(cfg))
	root.AddCommand(newInteractiveCmd())

	return root
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line, nil
}

func openSession(userLabel string, userVer uint) (*session.Session, error) {
	passphrase, err := readPassphrase("passphrase: ")
	if err != nil {
		return nil, err
	}
	return session.Open(passphrase, userLabel, userVer), nil
}

func openVaultStore(cfg *config.Config, s *session.Session) (*vaultstore.Store, error) {
	key, err := s.VaultKey()
	if err != nil {
		return nil, err
	}
	path := cfg.VaultPath
	if path == "" {
		path = "vault.enc"
	}
	return vaultstore.Open(path, key), nil
}

func printResult(cmd *cobra.Command, v any, format string) {
	if err := util.OutputResult(v, format, cmd.OutOrStdout()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

// --- init ---------------------------------------------------------------

func newInitCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the keyforge config directory and an empty vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized keyforge config directory at %s\n", dir)
			return nil
		},
	}
}

// --- generate -------------------------------------------------------------

func newGenerateCmd(userLabel *string, userVer *uint, outFormat *string, cfg *config.Config) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive key material from the master passphrase",
	}

	var hostname string
	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "Derive an SSH keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			key, err := s.SSHKey(hostname)
			if err != nil {
				return err
			}
			printResult(cmd, key, *outFormat)
			return nil
		},
	}
	sshCmd.Flags().StringVar(&hostname, "hostname", "", "hostname this key is for")

	var gpgName, gpgEmail, gpgComment, gpgService string
	gpgCmd := &cobra.Command{
		Use:   "gpg",
		Short: "Derive a GPG-framed keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			key, err := s.GPGKey(gpg.Options{Name: gpgName, Email: gpgEmail, Comment: gpgComment, Service: gpgService})
			if err != nil {
				return err
			}
			printResult(cmd, key, *outFormat)
			return nil
		},
	}
	gpgCmd.Flags().StringVar(&gpgName, "name", "", "key owner name")
	gpgCmd.Flags().StringVar(&gpgEmail, "email", "", "key owner email")
	gpgCmd.Flags().StringVar(&gpgComment, "comment", "", "key comment")
	gpgCmd.Flags().StringVar(&gpgService, "service", "", "service this key is for")

	var btcService string
	bitcoinCmd := &cobra.Command{
		Use:   "bitcoin",
		Short: "Derive a Bitcoin wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			w, err := s.Wallet(btcService)
			if err != nil {
				return err
			}
			printResult(cmd, w, *outFormat)
			return nil
		},
	}
	bitcoinCmd.Flags().StringVar(&btcService, "service", "", "service this wallet is for")

	var ethService string
	ethereumCmd := &cobra.Command{
		Use:   "ethereum",
		Short: "Derive an Ethereum wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			w, err := s.Wallet(ethService)
			if err != nil {
				return err
			}
			printResult(cmd, w, *outFormat)
			return nil
		},
	}
	ethereumCmd.Flags().StringVar(&ethService, "service", "", "service this wallet is for")

	generateCmd.AddCommand(sshCmd, gpgCmd, bitcoinCmd, ethereumCmd)
	return generateCmd
}

// --- vault ---------------------------------------------------------------

func newVaultCmd(userLabel *string, userVer *uint, outFormat *string, cfg *config.Config) *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Inspect and maintain the local vault",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show vault integrity and record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			ok, err := store.ValidateIntegrity()
			if err != nil {
				return err
			}
			printResult(cmd, map[string]any{
				"passwords":       len(store.Vault().Passwords),
				"notes":           len(store.Vault().Notes),
				"integrity_valid": ok,
			}, *outFormat)
			return nil
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Persist the vault and push to the configured BlobStore",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			var store2 blobstore.Store
			if err := store.Sync(store2); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "synced")
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every record in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			printResult(cmd, store.Vault(), *outFormat)
			return nil
		},
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the vault as a keyforge-backup container",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			key, err := s.VaultKey()
			if err != nil {
				return err
			}
			data, err := export.Export(store.Vault(), export.FormatBackup, key)
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(data)
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore [file]",
		Short: "Replace the vault with a previously exported backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			key, err := s.VaultKey()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			vault, _, err := export.Import(data, key)
			if err != nil {
				return err
			}
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			*store.Vault() = *vault
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "restored")
			return nil
		},
	}

	vaultCmd.AddCommand(statusCmd, syncCmd, listCmd, backupCmd, restoreCmd)
	return vaultCmd
}

// --- pass ------------------------------------------------------------------

func newPassCmd(userLabel *string, userVer *uint, outFormat *string, cfg *config.Config) *cobra.Command {
	passCmd := &cobra.Command{
		Use:   "pass",
		Short: "Manage password records in the vault",
	}

	var username, password, notes string
	var tags []string
	addCmd := &cobra.Command{
		Use:   "add [site]",
		Short: "Add a password record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			p, err := store.AddPassword(args[0], username, password, notes, tags)
			if err != nil {
				return err
			}
			printResult(cmd, p, *outFormat)
			return nil
		},
	}
	addCmd.Flags().StringVar(&username, "username", "", "account username")
	addCmd.Flags().StringVar(&password, "password", "", "account password")
	addCmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	addCmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")

	getCmd := &cobra.Command{
		Use:   "get [site]",
		Short: "Fetch a password record by site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			p, err := store.GetPassword(args[0])
			if err != nil {
				return err
			}
			printResult(cmd, p, *outFormat)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every password record",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			printResult(cmd, store.ListPasswords(), *outFormat)
			return nil
		},
	}

	var newUsername, newPassword, newNotes string
	updateCmd := &cobra.Command{
		Use:   "update [site]",
		Short: "Update a password record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			patch := vaultstore.PasswordPatch{}
			if cmd.Flags().Changed("username") {
				patch.Username = &newUsername
			}
			if cmd.Flags().Changed("password") {
				patch.Password = &newPassword
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &newNotes
			}
			p, err := store.UpdatePassword(args[0], patch)
			if err != nil {
				return err
			}
			printResult(cmd, p, *outFormat)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&newUsername, "username", "", "new username")
	updateCmd.Flags().StringVar(&newPassword, "password", "", "new password")
	updateCmd.Flags().StringVar(&newNotes, "notes", "", "new notes")

	deleteCmd := &cobra.Command{
		Use:   "delete [site]",
		Short: "Delete a password record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			if err := store.DeletePassword(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	var genLength int
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random password (not derived; not persisted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := randomPassword(genLength)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pw)
			return nil
		},
	}
	generateCmd.Flags().IntVar(&genLength, "length", 20, "password length")

	passCmd.AddCommand(addCmd, getCmd, listCmd, updateCmd, deleteCmd, generateCmd)
	return passCmd
}

const randomPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

func randomPassword(length int) (string, error) {
	if length <= 0 {
		length = 20
	}
	buf := make([]byte, length)
	if _, err := readRandom(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = randomPasswordAlphabet[int(b)%len(randomPasswordAlphabet)]
	}
	return string(out), nil
}

// --- totp ------------------------------------------------------------------

func newTOTPCmd(userLabel *string, userVer *uint, outFormat *string, cfg *config.Config) *cobra.Command {
	var digits int
	var period int64
	cmd := &cobra.Command{
		Use:   "totp [service]",
		Short: "Derive and display the current TOTP code for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			secret, err := s.TOTPSecret(args[0])
			if err != nil {
				return err
			}
			code, err := totp.Code(secret, nowUnix(), totp.Options{Digits: digits, Period: period})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), totp.Display(code))
			return nil
		},
	}
	cmd.Flags().IntVar(&digits, "digits", cfg.DefaultTOTPDigits, "code length")
	cmd.Flags().Int64Var(&period, "period", cfg.DefaultTOTPPeriod, "refresh period in seconds")
	return cmd
}

// --- export / import --------------------------------------------------------

func newExportCmd(userLabel *string, userVer *uint, cfg *config.Config) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vault as a json, encrypted, or backup container",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			key, err := s.VaultKey()
			if err != nil {
				return err
			}
			data, err := export.Export(store.Vault(), export.Format(format), key)
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(data)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json|encrypted|backup")
	return cmd
}

func newImportCmd(userLabel *string, userVer *uint, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a previously exported vault, replacing the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*userLabel, *userVer)
			if err != nil {
				return err
			}
			defer s.Close()
			key, err := s.VaultKey()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			vault, format, err := export.Import(data, key)
			if err != nil {
				return err
			}
			store, err := openVaultStore(cfg, s)
			if err != nil {
				return err
			}
			*store.Vault() = *vault
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s container\n", format)
			return nil
		},
	}
	return cmd
}

// --- recover -----------------------------------------------------------------

func newRecoverCmd(userLabel *string, userVer *uint, outFormat *string) *cobra.Command {
	var hostname, gpgService, walletService, totpService string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Regenerate key material from a passphrase without touching the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase("passphrase: ")
			if err != nil {
				return err
			}

			var want []recovery.Request
			if hostname != "" {
				want = append(want, recovery.Request{Kind: keykind.SSH, Label: hostname})
			}
			if gpgService != "" {
				want = append(want, recovery.Request{Kind: keykind.GPG, Label: gpgService})
			}
			if walletService != "" {
				want = append(want, recovery.Request{Kind: keykind.Bitcoin, Label: walletService})
			}
			if totpService != "" {
				want = append(want, recovery.Request{Kind: keykind.TOTP, Label: totpService})
			}

			bundle, err := recovery.RecoverFromPassphrase(passphrase, *userLabel, *userVer, want)
			if err != nil {
				return err
			}
			printResult(cmd, bundle, *outFormat)
			return nil
		},
	}
	cmd.Flags().StringVar(&hostname, "ssh-hostname", "", "regenerate the SSH key for this hostname")
	cmd.Flags().StringVar(&gpgService, "gpg-service", "", "regenerate the GPG key for this service")
	cmd.Flags().StringVar(&walletService, "wallet-service", "", "regenerate the wallet for this service")
	cmd.Flags().StringVar(&totpService, "totp-service", "", "regenerate the TOTP secret for this service")
	return cmd
}

// --- config ------------------------------------------------------------------

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			printResult(cmd, cfg, "json")
			return nil
		},
	}
	return cmd
}

// --- interactive ---------------------------------------------------------

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive REPL (not implemented in this build)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stderr, "interactive mode not implemented in this build")
			os.Exit(1)
			return nil
		},
	}
}

// nowUnix returns the current unix time, or the value of
// KEYFORGE_FAKE_NOW when set — used by integration tests that need a
// fixed TOTP window.
func nowUnix() int64 {
	if s := os.Getenv("KEYFORGE_FAKE_NOW"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return time.Now().Unix()
}

func readRandom(buf []byte) (int, error) {
	return rand.Read(buf)
}
