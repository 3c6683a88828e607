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
		os.Exit(1)
	}
}

const bashCompletion = `_lockpass() {
    local cur prev words cword
    _init_completion || return

    local commands="new open ls entries env attach extract diff keyring compact config help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    case "$prev" in
        -d)
            COMPREPLY=($(compgen -W "$(lockpass ls -q 2>/dev/null)" -- "$cur"))
            return
            ;;
        -p|-out)
            _filedir
            return
            ;;
    esac

    local cmd="${words[1]}"
    case "$cmd" in
        new)
            COMPREPLY=($(compgen -W "-p -d -author -comment -format" -- "$cur"))
            ;;
        open|entries|env)
            COMPREPLY=($(compgen -W "-p -d" -- "$cur"))
            ;;
        attach)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-p -d -id -comment" -- "$cur"))
            else
                _filedir
            fi
            ;;
        extract)
            COMPREPLY=($(compgen -W "-p -d -id -index -out" -- "$cur"))
            ;;
        diff)
            COMPREPLY=($(compgen -W "$(lockpass ls -q 2>/dev/null)" -- "$cur"))
            ;;
        ls)
            COMPREPLY=($(compgen -W "-q -prune" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "-p -d" -- "$cur"))
            fi
            ;;
        config)
            COMPREPLY=($(compgen -W "init" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _lockpass lockpass
`

const zshCompletion = `#compdef lockpass

_lockpass() {
    local -a commands
    commands=(
        'new:Create a new encrypted vault'
        'open:Edit a vault interactively'
        'ls:List known vaults'
        'entries:List the entries of a vault'
        'env:Print environment variable entries as exports'
        'attach:Attach files to an entry'
        'extract:Write attachments of an entry to disk'
        'diff:Compare two vaults without revealing values'
        'keyring:Manage password in OS keyring'
        'compact:Compact the vault registry'
        'config:Show or write the configuration'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a vault_opts
    vault_opts=(
        '-p[Vault file path]:vault file:_files'
        '-d[Vault name in the vault directory]:vault name:_lockpass_vaults'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'lockpass commands' commands
            ;;
        args)
            case "${words[2]}" in
                new)
                    _arguments $vault_opts \
                        '-author[Vault author]:author:' \
                        '-comment[Vault description]:comment:'
                    ;;
                open|entries|env)
                    _arguments $vault_opts
                    ;;
                attach)
                    _arguments $vault_opts \
                        '-id[Entry id]:id:' \
                        '-comment[Attachment comment]:comment:' \
                        '*:file:_files'
                    ;;
                extract)
                    _arguments $vault_opts \
                        '-id[Entry id]:id:' \
                        '-index[Attachment index]:index:' \
                        '-out[Output directory]:directory:_files -/'
                    ;;
                diff)
                    _arguments '*:vault:_lockpass_vaults'
                    ;;
                ls)
                    _arguments '-q[Print names only]' '-prune[Forget missing vaults]'
                    ;;
                keyring)
                    _arguments '1:subcommand:(save delete status)' $vault_opts
                    ;;
                help)
                    _describe -t commands 'lockpass commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_lockpass_vaults() {
    local -a vaults
    vaults=(${(f)"$(lockpass ls -q 2>/dev/null)"})
    _describe -t vaults 'vaults' vaults
}

_lockpass "$@"
`

const fishCompletion = `# lockpass fish completions

set -l commands new open ls entries env attach extract diff keyring compact config help completion
set -l vault_commands new open entries env attach extract keyring

complete -c lockpass -f

# Commands
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a new -d 'Create a new vault'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a open -d 'Edit a vault interactively'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List known vaults'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a entries -d 'List entries'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a env -d 'Print exports'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a attach -d 'Attach files'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a extract -d 'Extract attachments'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare two vaults'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact registry'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a config -d 'Show configuration'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c lockpass -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Vault selection
complete -c lockpass -n "__fish_seen_subcommand_from $vault_commands" -o p -r -F -d 'Vault file path'
complete -c lockpass -n "__fish_seen_subcommand_from $vault_commands" -o d -x -a "(lockpass ls -q 2>/dev/null)" -d 'Vault name'
complete -c lockpass -n "__fish_seen_subcommand_from diff" -a "(lockpass ls -q 2>/dev/null)"

# new flags
complete -c lockpass -n "__fish_seen_subcommand_from new" -o author -x -d 'Vault author'
complete -c lockpass -n "__fish_seen_subcommand_from new" -o comment -x -d 'Vault description'

# attach and extract flags
complete -c lockpass -n "__fish_seen_subcommand_from attach extract" -o id -x -d 'Entry id'
complete -c lockpass -n "__fish_seen_subcommand_from attach" -o comment -x -d 'Attachment comment'
complete -c lockpass -n "__fish_seen_subcommand_from attach" -F
complete -c lockpass -n "__fish_seen_subcommand_from extract" -o index -x -d 'Attachment index'
complete -c lockpass -n "__fish_seen_subcommand_from extract" -o out -r -a "(__fish_complete_directories)" -d 'Output directory'

# ls flags
complete -c lockpass -n "__fish_seen_subcommand_from ls" -s q -d 'Print names only'
complete -c lockpass -n "__fish_seen_subcommand_from ls" -o prune -d 'Forget missing vaults'

# keyring subcommands
complete -c lockpass -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c lockpass -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c lockpass -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
