package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/pkgdb/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	global := flag.NewFlagSet("pkgdb", flag.ExitOnError)
	global.Usage = printUsage
	configPath := global.String("config", "", "Path to the config file (default $PKGDB_CONFIG or ./config.yaml)")
	skip := global.Bool("skip-unreadable", false, "Skip unreadable directories during search instead of failing")
	if err := global.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	args := global.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	env := cmd.Env{ConfigPath: *configPath, SkipUnreadable: *skip}

	switch args[0] {
	case "ls", "list":
		runLs(env, args[1:])
	case "add":
		runAdd(env, args[1:])
	case "rm":
		runRm(env, args[1:])
	case "show":
		runShow(env, args[1:])
	case "import":
		runImport(env, args[1:])
	case "export":
		runExport(env, args[1:])
	case "secret":
		runSecret(env, args[1:])
	case "search":
		runSearch(ctx, env, args[1:])
	case "sync":
		runSync(ctx, env, args[1:])
	case "diff":
		runDiff(ctx, env, args[1:])
	case "scan":
		runScan(ctx, env, args[1:])
	case "du":
		runDu(ctx, env, args[1:])
	case "path":
		runPath(env, args[1:])
	case "flush":
		runFlush(env, args[1:])
	case "status":
		runStatus(env, args[1:])
	case "keyring":
		runKeyring(env, args[1:])
	case "compact":
		runCompact(env, args[1:])
	case "completion":
		runCompletion(args[1:])
	case "help", "-h", "--help":
		if len(args) <= 1 {
			printUsage()
			return
		}
		printCommandHelp(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func runLs(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	long := fs.Bool("l", false, "Show storage path and presence of each package")
	parse(fs, args)

	cmd.Ls(env, *long)
}

func runAdd(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	parse(fs, args)

	cmd.Add(env, fs.Args())
}

func runRm(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	purge := fs.Bool("purge", false, "Also delete the package manifest and tarballs from storage")
	parse(fs, args)

	cmd.Remove(env, fs.Args(), *purge)
}

func runShow(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	parse(fs, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb show <package>")
		os.Exit(1)
	}

	cmd.Show(env, fs.Arg(0))
}

func runImport(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	force := fs.Bool("force", false, "Replace an existing manifest")
	parse(fs, args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb import [--force] <package> <package.json> [tarball...]")
		os.Exit(1)
	}

	cmd.Import(env, fs.Arg(0), fs.Arg(1), fs.Args()[2:], *force)
}

func runExport(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "Write to this file instead of stdout")
	parse(fs, args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb export [-o file] <package> <tarball>")
		os.Exit(1)
	}

	cmd.Export(env, fs.Arg(0), fs.Arg(1), *out)
}

func runSecret(env cmd.Env, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb secret <get|set|generate|fingerprint>")
		os.Exit(1)
	}

	switch args[0] {
	case "get":
		cmd.SecretGet(env)
	case "set":
		var value string
		if len(args) > 1 {
			value = args[1]
		}
		cmd.SecretSet(env, value)
	case "generate":
		fs := flag.NewFlagSet("secret generate", flag.ExitOnError)
		force := fs.Bool("force", false, "Replace an existing secret")
		parse(fs, args[1:])
		cmd.SecretGenerate(env, *force)
	case "fingerprint":
		cmd.SecretFingerprint(env)
	default:
		fmt.Fprintf(os.Stderr, "Unknown secret command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: pkgdb secret <get|set|generate|fingerprint>")
		os.Exit(1)
	}
}

func runSearch(ctx context.Context, env cmd.Env, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print one JSON object per package")
	parse(fs, args)

	cmd.Search(ctx, env, *asJSON)
}

func runSync(ctx context.Context, env cmd.Env, args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Only show what would be added")
	parse(fs, args)

	cmd.Sync(ctx, env, *dryRun)
}

func runDiff(ctx context.Context, env cmd.Env, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	parse(fs, args)

	cmd.Diff(ctx, env)
}

func runScan(ctx context.Context, env cmd.Env, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	ledgerFile := fs.String("ledger", "", "Scan ledger file (default next to the index)")
	parse(fs, args)

	cmd.Scan(ctx, env, *ledgerFile)
}

func runDu(ctx context.Context, env cmd.Env, args []string) {
	fs := flag.NewFlagSet("du", flag.ExitOnError)
	parse(fs, args)

	cmd.Du(ctx, env, fs.Args())
}

func runPath(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	parse(fs, args)

	cmd.Path(env, fs.Arg(0))
}

func runFlush(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("flush", flag.ExitOnError)
	parse(fs, args)

	cmd.Flush(env)
}

func runStatus(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parse(fs, args)

	cmd.Status(env)
}

func runKeyring(env cmd.Env, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb keyring <save|restore|delete|status>")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(env)
	case "restore":
		cmd.KeyringRestore(env)
	case "delete":
		cmd.KeyringDelete(env)
	case "status":
		cmd.KeyringStatus(env)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: pkgdb keyring <save|restore|delete|status>")
		os.Exit(1)
	}
}

func runCompact(env cmd.Env, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	ledgerFile := fs.String("ledger", "", "Scan ledger file (default next to the index)")
	parse(fs, args)

	cmd.Compact(env, *ledgerFile)
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("pkgdb - Package index and storage tool for a local registry")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pkgdb [-config file] [-skip-unreadable] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ls          List packages in the index")
	fmt.Println("  add         Add packages to the index")
	fmt.Println("  rm          Remove packages from the index")
	fmt.Println("  show        Show what is stored for a package")
	fmt.Println("  import      Copy a manifest and tarballs into storage")
	fmt.Println("  export      Write a stored tarball out")
	fmt.Println("  secret      Get, set or generate the shared secret")
	fmt.Println("  search      List package directories found on disk")
	fmt.Println("  sync        Add packages found on disk to the index")
	fmt.Println("  diff        Compare the index with the packages on disk")
	fmt.Println("  scan        Record a disk scan and show what changed")
	fmt.Println("  du          Show disk usage per package")
	fmt.Println("  path        Show index and storage locations")
	fmt.Println("  flush       Rewrite the index file")
	fmt.Println("  status      Show index, secret and storage state")
	fmt.Println("  keyring     Keep a copy of the secret in the OS keyring")
	fmt.Println("  compact     Compact the scan ledger")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pkgdb -config /etc/registry/config.yaml ls")
	fmt.Println("  pkgdb sync --dry-run             # Packages on disk missing from the index")
	fmt.Println("  pkgdb secret generate            # Create the shared secret")
	fmt.Println("  pkgdb du @scope/pkg              # Disk usage of one package")
	fmt.Println()
	fmt.Println("Use 'pkgdb help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "ls", "list":
		fmt.Println("pkgdb ls [-l]")
		fmt.Println()
		fmt.Println("Lists package names recorded in the index, in the order they were added.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -l    Show each package's storage directory and whether it exists")
	case "add":
		fmt.Println("pkgdb add <package> [package...]")
		fmt.Println()
		fmt.Println("Records packages in the index. Adding a known package does nothing.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  pkgdb add lodash @corp/utils")
	case "rm":
		fmt.Println("pkgdb rm [--purge] <package> [package...]")
		fmt.Println()
		fmt.Println("Removes packages from the index.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --purge    Also delete package.json and tarballs from storage")
	case "show":
		fmt.Println("pkgdb show <package>")
		fmt.Println()
		fmt.Println("Shows the storage directory, manifest and tarballs of a package.")
	case "import":
		fmt.Println("pkgdb import [--force] <package> <package.json> [tarball...]")
		fmt.Println()
		fmt.Println("Copies a manifest and tarballs into the package's storage directory")
		fmt.Println("and adds the package to the index.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force    Replace an existing manifest")
	case "export":
		fmt.Println("pkgdb export [-o file] <package> <tarball>")
		fmt.Println()
		fmt.Println("Writes a stored tarball to stdout, or to a new file with -o.")
	case "secret":
		fmt.Println("pkgdb secret <get|set|generate|fingerprint>")
		fmt.Println()
		fmt.Println("Manages the shared secret stored in the index.")
		fmt.Println()
		fmt.Println("  get                  Print the secret")
		fmt.Println("  set [value]          Set the secret (from value, $PKGDB_SECRET or prompt)")
		fmt.Println("  generate [--force]   Generate a random secret")
		fmt.Println("  fingerprint          Print a short digest, safe to compare between hosts")
	case "search":
		fmt.Println("pkgdb search [--json]")
		fmt.Println()
		fmt.Println("Walks the default storage root and every override root and lists")
		fmt.Println("the package directories found, scoped packages included.")
	case "sync":
		fmt.Println("pkgdb sync [--dry-run]")
		fmt.Println()
		fmt.Println("Adds every package found on disk but missing from the index.")
	case "diff":
		fmt.Println("pkgdb diff")
		fmt.Println()
		fmt.Println("Shows a unified diff from the index to the packages on disk.")
		fmt.Println("Exits with status 1 when they differ.")
	case "scan":
		fmt.Println("pkgdb scan [--ledger file]")
		fmt.Println()
		fmt.Println("Records the packages on disk in the scan ledger and shows what was")
		fmt.Println("added, removed or modified since the previous scan.")
	case "du":
		fmt.Println("pkgdb du [package...]")
		fmt.Println()
		fmt.Println("Shows disk usage of each package, all indexed packages by default.")
	case "path":
		fmt.Println("pkgdb path [package]")
		fmt.Println()
		fmt.Println("Prints the storage directory of a package, or the index file and")
		fmt.Println("storage roots when no package is given.")
	case "flush":
		fmt.Println("pkgdb flush")
		fmt.Println()
		fmt.Println("Rewrites the index file. Fails if the index could not be read.")
	case "status":
		fmt.Println("pkgdb status")
		fmt.Println()
		fmt.Println("Shows the index location and state, package count, secret fingerprint,")
		fmt.Println("storage roots and the time of the last scan. Inside a git work tree it")
		fmt.Println("also warns when the index or scan ledger is tracked or not ignored.")
	case "keyring":
		fmt.Println("pkgdb keyring <save|restore|delete|status>")
		fmt.Println()
		fmt.Println("Keeps a copy of the shared secret in the OS keyring, keyed by index path.")
		fmt.Println()
		fmt.Println("  save      Copy the secret into the keyring")
		fmt.Println("  restore   Write the keyring copy back into the index")
		fmt.Println("  delete    Remove the keyring copy")
		fmt.Println("  status    Show whether a copy is stored and matches")
	case "compact":
		fmt.Println("pkgdb compact [--ledger file]")
		fmt.Println()
		fmt.Println("Compacts the scan ledger to reclaim unused disk space.")
	case "completion":
		fmt.Println("pkgdb completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(pkgdb completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(pkgdb completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  pkgdb completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
