package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		exit(1)
	}
}

const bashCompletion = `_pkgdb() {
    local cur prev words cword
    _init_completion || return

    local commands="ls add rm show import export secret search sync diff scan du path flush status keyring compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        ls)
            COMPREPLY=($(compgen -W "-l" -- "$cur"))
            ;;
        rm|show|du|path|export)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--purge" -- "$cur"))
            else
                # Complete with packages from the index
                local pkgs
                pkgs=$(pkgdb ls 2>/dev/null)
                COMPREPLY=($(compgen -W "$pkgs" -- "$cur"))
            fi
            ;;
        import)
            _filedir
            ;;
        secret)
            COMPREPLY=($(compgen -W "get set generate fingerprint" -- "$cur"))
            ;;
        search)
            COMPREPLY=($(compgen -W "--json" -- "$cur"))
            ;;
        sync)
            COMPREPLY=($(compgen -W "--dry-run" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save restore delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _pkgdb pkgdb
`

const zshCompletion = `#compdef pkgdb

_pkgdb() {
    local -a commands
    commands=(
        'ls:List packages in the index'
        'add:Add packages to the index'
        'rm:Remove packages from the index'
        'show:Show what is stored for a package'
        'import:Copy a manifest and tarballs into storage'
        'export:Write a stored tarball out'
        'secret:Manage the shared secret'
        'search:List package directories on disk'
        'sync:Add packages found on disk to the index'
        'diff:Compare the index with the packages on disk'
        'scan:Record a disk scan and show changes'
        'du:Show disk usage per package'
        'path:Show index and storage locations'
        'flush:Rewrite the index file'
        'status:Show index, secret and storage state'
        'keyring:Manage the secret in the OS keyring'
        'compact:Compact the scan ledger'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'pkgdb commands' commands
            ;;
        args)
            case "${words[2]}" in
                rm)
                    _arguments \
                        '--purge[Delete stored files too]' \
                        '*:package:_pkgdb_packages'
                    ;;
                show|du|path|export)
                    _arguments '*:package:_pkgdb_packages'
                    ;;
                import)
                    _arguments '*:file:_files'
                    ;;
                secret)
                    _values 'subcommand' get set generate fingerprint
                    ;;
                keyring)
                    _values 'subcommand' save restore delete status
                    ;;
                help)
                    _describe -t commands 'pkgdb commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_pkgdb_packages() {
    local -a pkgs
    pkgs=(${(f)"$(pkgdb ls 2>/dev/null)"})
    _describe -t packages 'packages' pkgs
}

_pkgdb "$@"
`

const fishCompletion = `# pkgdb fish completions

set -l commands ls add rm show import export secret search sync diff scan du path flush status keyring compact help completion

complete -c pkgdb -f

# Commands
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List packages in the index'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add packages to the index'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove packages from the index'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a show -d 'Show stored package'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import manifest and tarballs'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a export -d 'Export a tarball'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a secret -d 'Manage the shared secret'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a search -d 'List packages on disk'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a sync -d 'Index packages found on disk'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare index with disk'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a scan -d 'Record a disk scan'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a du -d 'Disk usage per package'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a path -d 'Show locations'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a flush -d 'Rewrite the index file'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show index and storage state'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage secret in OS keyring'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact the scan ledger'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c pkgdb -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# package arguments
complete -c pkgdb -n "__fish_seen_subcommand_from rm show du path export" -a "(pkgdb ls 2>/dev/null)"
complete -c pkgdb -n "__fish_seen_subcommand_from rm" -l purge -d 'Delete stored files too'
complete -c pkgdb -n "__fish_seen_subcommand_from import" -F

# flags
complete -c pkgdb -n "__fish_seen_subcommand_from ls" -s l -d 'Show storage paths'
complete -c pkgdb -n "__fish_seen_subcommand_from search" -l json -d 'JSON output'
complete -c pkgdb -n "__fish_seen_subcommand_from sync" -l dry-run -d 'Only show what would be added'

# subcommands
complete -c pkgdb -n "__fish_seen_subcommand_from secret" -a "get set generate fingerprint"
complete -c pkgdb -n "__fish_seen_subcommand_from keyring" -a "save restore delete status"

# help completions
complete -c pkgdb -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c pkgdb -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
