package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/illarion/lockpass/cmd"
)

func main() {
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "new":
		runNew(ctx, os.Args[2:])
	case "open":
		runOpen(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "entries":
		runEntries(ctx, os.Args[2:])
	case "env":
		runEnv(ctx, os.Args[2:])
	case "attach":
		runAttach(ctx, os.Args[2:])
	case "extract":
		runExtract(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "config":
		runConfig(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type vaultFlags struct {
	path *string
	name *string
}

func addVaultFlags(fs *flag.FlagSet) vaultFlags {
	return vaultFlags{
		path: fs.String("p", "", "Vault file path"),
		name: fs.String("d", "", "Vault name in the vault directory"),
	}
}

func (v vaultFlags) resolve(env *cmd.Env) string {
	return env.VaultPath(*v.path, *v.name)
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func runNew(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	vf := addVaultFlags(fs)
	author := fs.String("author", "", "Vault author (defaults to the current user)")
	comment := fs.String("comment", "", "Vault description")
	format := fs.Int("format", -1, "Frame version to write: 0 or 1")
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	if *format >= 0 {
		env.Config.FormatVersion = *format
		env.Config.SetFlag("format_version")
		if err := env.Config.Validate(); err != nil {
			cmd.HandleError(err)
		}
	}
	env.New(ctx, vf.resolve(env), *author, *comment)
}

func runOpen(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	vf := addVaultFlags(fs)
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.Open(ctx, vf.resolve(env))
}

func runLs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	quiet := fs.Bool("q", false, "Print vault names only")
	prune := fs.Bool("prune", false, "Forget vaults whose files are gone")
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.Ls(ctx, *quiet, *prune)
}

func runEntries(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("entries", flag.ExitOnError)
	vf := addVaultFlags(fs)
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.Entries(ctx, vf.resolve(env))
}

func runEnv(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("env", flag.ExitOnError)
	vf := addVaultFlags(fs)
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.Env(ctx, vf.resolve(env))
}

func runAttach(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	vf := addVaultFlags(fs)
	id := fs.String("id", "", "Entry id")
	comment := fs.String("comment", "", "Attachment comment")
	parse(fs, args)

	if *id == "" || fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: lockpass attach (-p <path> | -d <name>) -id <entry> <file> [file...]")
		os.Exit(1)
	}

	env := cmd.Setup()
	defer env.Close()
	env.Attach(ctx, vf.resolve(env), *id, *comment, fs.Args())
}

func runExtract(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	vf := addVaultFlags(fs)
	id := fs.String("id", "", "Entry id")
	index := fs.Int("index", -1, "Attachment index (default: all)")
	out := fs.String("out", ".", "Output directory")
	parse(fs, args)

	if *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: lockpass extract (-p <path> | -d <name>) -id <entry> [-index n] [-out dir]")
		os.Exit(1)
	}

	env := cmd.Setup()
	defer env.Close()
	env.Extract(ctx, vf.resolve(env), *id, *index, *out)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	parse(fs, args)

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: lockpass diff <vault> <vault>")
		os.Exit(1)
	}

	env := cmd.Setup()
	defer env.Close()
	env.Diff(ctx, env.ResolveVault(fs.Arg(0)), env.ResolveVault(fs.Arg(1)))
}

func runKeyring(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lockpass keyring <save|delete|status> (-p <path> | -d <name>)")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("keyring "+args[0], flag.ExitOnError)
	vf := addVaultFlags(fs)
	parse(fs, args[1:])

	env := cmd.Setup()
	defer env.Close()
	path := vf.resolve(env)

	switch args[0] {
	case "save":
		env.KeyringSave(ctx, path)
	case "delete":
		env.KeyringDelete(ctx, path)
	case "status":
		env.KeyringStatus(path)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompact(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.Compact(ctx)
}

func runConfig(_ context.Context, args []string) {
	if len(args) > 0 && args[0] == "init" {
		fs := flag.NewFlagSet("config init", flag.ExitOnError)
		force := fs.Bool("force", false, "Overwrite an existing config file")
		parse(fs, args[1:])

		env := cmd.Setup()
		defer env.Close()
		env.ConfigInit(*force)
		return
	}
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	parse(fs, args)

	env := cmd.Setup()
	defer env.Close()
	env.ConfigShow()
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lockpass completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("lockpass - Encrypted local password and secret vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lockpass <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  new         Create a new encrypted vault")
	fmt.Println("  open        Edit a vault in the interactive editor")
	fmt.Println("  ls          List known vaults")
	fmt.Println("  entries     List the entries of a vault")
	fmt.Println("  env         Print environment variable entries as exports")
	fmt.Println("  attach      Attach files to an entry")
	fmt.Println("  extract     Write attachments of an entry to disk")
	fmt.Println("  diff        Compare two vaults without revealing values")
	fmt.Println("  keyring     Manage the vault password in the OS keyring")
	fmt.Println("  compact     Compact the vault registry")
	fmt.Println("  config      Show or write the configuration")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  lockpass new -d personal        # Create vault 'personal'")
	fmt.Println("  lockpass open -d personal       # Edit it")
	fmt.Println("  eval \"$(lockpass env -d work)\"  # Export its variables")
	fmt.Println()
	fmt.Println("Use 'lockpass help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "new":
		fmt.Println("lockpass new (-p <path> | -d <name>) [-author a] [-comment c] [-format 0|1]")
		fmt.Println()
		fmt.Println("Creates an empty encrypted vault.")
		fmt.Println("Prompts for a password twice unless LOCKPASS_PASSWORD is set.")
		fmt.Println("The password is not stored anywhere - you must remember it.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -p        Vault file path")
		fmt.Println("  -d        Vault name, resolved in vault_dir with the .vault extension")
		fmt.Println("  -author   Vault author (defaults to the current user)")
		fmt.Println("  -comment  Vault description")
		fmt.Println("  -format   0 writes the bare frame, 1 adds a version header")
	case "open":
		fmt.Println("lockpass open (-p <path> | -d <name>)")
		fmt.Println()
		fmt.Println("Opens the interactive editor. The vault is saved when the editor exits.")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  h / p     Home / entry list")
		fmt.Println("  Up/Down   Move the selection")
		fmt.Println("  Enter     Open the selected entry")
		fmt.Println("  a / r     Add / remove an entry")
		fmt.Println("  e         Edit the selected field")
		fmt.Println("  s         Show or hide the value")
		fmt.Println("  t         Toggle password / environment variable")
		fmt.Println("  c         Copy the selected field")
		fmt.Println("  q         Save and quit")
	case "ls":
		fmt.Println("lockpass ls [-q] [-prune]")
		fmt.Println()
		fmt.Println("Lists vaults created or opened on this machine.")
		fmt.Println("Does not require a password.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -q      Print vault names only")
		fmt.Println("  -prune  Forget vaults whose files no longer exist")
	case "entries":
		fmt.Println("lockpass entries (-p <path> | -d <name>)")
		fmt.Println()
		fmt.Println("Lists entry ids, types, titles and attachments. Values are never printed.")
	case "env":
		fmt.Println("lockpass env (-p <path> | -d <name>)")
		fmt.Println()
		fmt.Println("Prints an export statement for every environment variable entry.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  eval \"$(lockpass env -d work)\"")
	case "attach":
		fmt.Println("lockpass attach (-p <path> | -d <name>) -id <entry> [-comment c] <file> [file...]")
		fmt.Println()
		fmt.Println("Stores files inside an entry.")
	case "extract":
		fmt.Println("lockpass extract (-p <path> | -d <name>) -id <entry> [-index n] [-out dir]")
		fmt.Println()
		fmt.Println("Writes attachments of an entry into a directory with mode 0600.")
		fmt.Println("Without -index every attachment is written.")
	case "diff":
		fmt.Println("lockpass diff <vault> <vault>")
		fmt.Println()
		fmt.Println("Compares two vaults given as paths or names.")
		fmt.Println("Values are shown as keyed fingerprints, never in clear.")
	case "keyring":
		fmt.Println("lockpass keyring <save|delete|status> (-p <path> | -d <name>)")
		fmt.Println()
		fmt.Println("Stores the vault password in the OS keyring so it is not prompted for.")
	case "compact":
		fmt.Println("lockpass compact")
		fmt.Println()
		fmt.Println("Compacts the vault registry to reclaim unused disk space.")
		fmt.Println("Does not require a password.")
	case "config":
		fmt.Println("lockpass config [init [-force]]")
		fmt.Println()
		fmt.Println("Shows each setting and whether it came from the default, the config file,")
		fmt.Println("the environment or a flag. 'init' writes the effective settings to the file.")
	case "completion":
		fmt.Println("lockpass completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(lockpass completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(lockpass completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  lockpass completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
