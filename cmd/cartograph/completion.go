// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	flag "github.com/spf13/pflag"
	"fmt"
	"os"

	"github.com/kraklabs/cartograph/internal/errors"
)

// bashCompletionTemplate is the bash completion script for cartograph.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for cartograph
# Installation:
#   source <(cartograph completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(cartograph completion bash)' >> ~/.bashrc

_cartograph_completion() {
    local cur prev commands
    commands="init index worker status query reset install-hook completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --config" -- ${cur}) )
        return 0
    fi

    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        index)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--full --incremental --embed-workers --debug --metrics-addr" -- ${cur}) )
            fi
            ;;
        worker)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--debug" -- ${cur}) )
            fi
            ;;
        status)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json" -- ${cur}) )
            fi
            ;;
        query)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json --limit --timeout" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        install-hook)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--force --remove" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _cartograph_completion cartograph
`

// zshCompletionTemplate is the zsh completion script for cartograph.
const zshCompletionTemplate = `#compdef cartograph

# Zsh completion script for cartograph
# Installation:
#   1. Ensure compinit is loaded (add to ~/.zshrc if not present):
#      autoload -U compinit; compinit
#   2. Save this script to a directory in your fpath:
#      cartograph completion zsh > "${fpath[1]}/_cartograph"
#   3. Reload completions:
#      rm -f ~/.zcompdump; compinit

_cartograph() {
    local -a commands
    commands=(
        'init:Create .cartograph/project.yaml configuration'
        'index:Index the current repository'
        'worker:Run the Temporal activity and workflow pollers'
        'status:Show project status'
        'query:Execute a CozoScript query'
        'reset:Reset local project data'
        'install-hook:Install git post-commit hook'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--config[Path to .cartograph/project.yaml]:config file:_files -g "*.yaml"' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                index)
                    _arguments \
                        '--full[Delete existing data and reindex from scratch]' \
                        '--incremental[Signal the running Temporal workflow]' \
                        '--embed-workers[Number of embedding workers]:workers:' \
                        '--debug[Enable debug logging]' \
                        '--metrics-addr[Prometheus metrics address]:address:'
                    ;;
                worker)
                    _arguments \
                        '--debug[Enable debug logging]'
                    ;;
                status)
                    _arguments \
                        '--json[Output as JSON]'
                    ;;
                query)
                    _arguments \
                        '--json[Output as JSON]' \
                        '1:cozoscript query:'
                    ;;
                reset)
                    _arguments \
                        '--yes[Confirm the reset (required)]'
                    ;;
                install-hook)
                    _arguments \
                        '--force[Overwrite existing hook]' \
                        '--remove[Remove the hook]'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_cartograph
`

// fishCompletionTemplate is the fish completion script for cartograph.
const fishCompletionTemplate = `# Fish completion script for cartograph
# Installation:
#   1. Load completions for current session:
#      cartograph completion fish | source
#   2. Install permanently:
#      cartograph completion fish > ~/.config/fish/completions/cartograph.fish

complete -c cartograph -f -n "__fish_use_subcommand" -a "init" -d "Create .cartograph/project.yaml configuration"
complete -c cartograph -f -n "__fish_use_subcommand" -a "index" -d "Index the current repository"
complete -c cartograph -f -n "__fish_use_subcommand" -a "worker" -d "Run the Temporal activity and workflow pollers"
complete -c cartograph -f -n "__fish_use_subcommand" -a "status" -d "Show project status"
complete -c cartograph -f -n "__fish_use_subcommand" -a "query" -d "Execute a CozoScript query"
complete -c cartograph -f -n "__fish_use_subcommand" -a "reset" -d "Reset local project data (destructive!)"
complete -c cartograph -f -n "__fish_use_subcommand" -a "install-hook" -d "Install git post-commit hook"
complete -c cartograph -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c cartograph -l version -d "Show version and exit"
complete -c cartograph -l config -d "Path to .cartograph/project.yaml" -r

complete -c cartograph -n "__fish_seen_subcommand_from index" -l full -d "Delete existing data and reindex from scratch"
complete -c cartograph -n "__fish_seen_subcommand_from index" -l incremental -d "Signal the running Temporal workflow"
complete -c cartograph -n "__fish_seen_subcommand_from index" -l embed-workers -d "Number of embedding workers" -r
complete -c cartograph -n "__fish_seen_subcommand_from index" -l debug -d "Enable debug logging"
complete -c cartograph -n "__fish_seen_subcommand_from index" -l metrics-addr -d "Prometheus metrics address" -r

complete -c cartograph -n "__fish_seen_subcommand_from worker" -l debug -d "Enable debug logging"

complete -c cartograph -n "__fish_seen_subcommand_from status" -l json -d "Output as JSON"

complete -c cartograph -n "__fish_seen_subcommand_from query" -l json -d "Output as JSON"

complete -c cartograph -n "__fish_seen_subcommand_from reset" -l yes -d "Confirm the reset (required)"

complete -c cartograph -n "__fish_seen_subcommand_from install-hook" -l force -d "Overwrite existing hook"
complete -c cartograph -n "__fish_seen_subcommand_from install-hook" -l remove -d "Remove the hook"

complete -c cartograph -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c cartograph -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c cartograph -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion executes the 'completion' CLI command, generating a
// shell-specific completion script for bash, zsh, or fish.
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph completion <shell>

Generate shell completion scripts for bash, zsh, or fish.

Examples:
  source <(cartograph completion bash)
  cartograph completion zsh > "${fpath[1]}/_cartograph"
  cartograph completion fish | source

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'cartograph completion bash', 'cartograph completion zsh', or 'cartograph completion fish'",
		), false)
	}

	shell := fs.Arg(0)

	switch shell {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		errors.FatalError(errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell '%s' is not supported. Valid options: bash, zsh, fish", shell),
			"Run 'cartograph completion bash', 'cartograph completion zsh', or 'cartograph completion fish'",
		), false)
	}
}
