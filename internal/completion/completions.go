// Package completion prints shell completion scripts for tunefetch.
package completion

import (
	"fmt"
	"io"
	"strings"
)

// Shells lists the supported shells in help order.
var Shells = []string{"bash", "zsh", "fish"}

// Write prints the completion script for shell to w.
func Write(w io.Writer, shell string) error {
	switch strings.ToLower(shell) {
	case "bash":
		_, err := io.WriteString(w, BashCompletion)
		return err
	case "zsh":
		_, err := io.WriteString(w, ZshCompletion)
		return err
	case "fish":
		_, err := io.WriteString(w, FishCompletion)
		return err
	default:
		return fmt.Errorf("unsupported shell: %s (supported: %s)", shell, strings.Join(Shells, ", "))
	}
}

// Usage prints installation hints.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tunefetch completion <shell>")
	fmt.Fprintln(w, "Supported shells: "+strings.Join(Shells, ", "))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Installation examples:")
	fmt.Fprintln(w, "  Bash: tunefetch completion bash > ~/.local/share/bash-completion/completions/tunefetch")
	fmt.Fprintln(w, "  Zsh:  tunefetch completion zsh > ~/.zsh/completion/_tunefetch")
	fmt.Fprintln(w, "  Fish: tunefetch completion fish > ~/.config/fish/completions/tunefetch.fish")
}

// BashCompletion is the bash completion script.
const BashCompletion = `# tunefetch bash completion script
# Installation: tunefetch completion bash > ~/.local/share/bash-completion/completions/tunefetch

_tunefetch_completion() {
    local cur prev words cword
    _init_completion || return

    local commands="track album playlist artist search saved batch validate import config check cleanup completion"
    local flags="-c --config -p --profile -o --output -q --quality -f --format -r --retries --retry-delay -t --timeout --cookies --no-cookies --no-validate -y --yes -v --verbose --help"

    case "$prev" in
        -p|--profile)
            COMPREPLY=($(compgen -W "spotdl yt-dlp" -- "$cur"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "mp3 m4a flac opus ogg wav" -- "$cur"))
            return
            ;;
        -o|--output)
            COMPREPLY=($(compgen -d -- "$cur"))
            return
            ;;
        -c|--config)
            COMPREPLY=($(compgen -f -X '!*.json' -- "$cur"))
            return
            ;;
        --validate)
            COMPREPLY=($(compgen -W "ask available all skip" -- "$cur"))
            return
            ;;
    esac

    local i cmd=""
    for ((i = 1; i < cword; i++)); do
        case " $commands " in
            *" ${words[i]} "*) cmd="${words[i]}"; break ;;
        esac
    done

    case "$cmd" in
        "")
            COMPREPLY=($(compgen -W "$commands $flags" -- "$cur"))
            ;;
        saved)
            COMPREPLY=($(compgen -W "liked playlists albums" -- "$cur"))
            ;;
        batch)
            COMPREPLY=($(compgen -f -W "--validate" -- "$cur"))
            ;;
        import)
            COMPREPLY=($(compgen -f -W "-m --manifest" -- "$cur"))
            ;;
        config)
            COMPREPLY=($(compgen -W "show save reset" -- "$cur"))
            ;;
        cleanup)
            COMPREPLY=($(compgen -W "--dry-run" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _tunefetch_completion tunefetch
`

// ZshCompletion is the zsh completion script.
const ZshCompletion = `#compdef tunefetch
# tunefetch zsh completion script
# Installation: tunefetch completion zsh > ~/.zsh/completion/_tunefetch
# Then add to ~/.zshrc: fpath=(~/.zsh/completion $fpath)

_tunefetch() {
    local -a commands
    commands=(
        'track:Download a single track'
        'album:Download an album'
        'playlist:Download a playlist'
        'artist:Download an artist discography or channel'
        'search:Search and download the best match'
        'saved:Download a user collection'
        'batch:Process a manifest file of targets'
        'validate:Check targets without downloading'
        'import:Append the entries of an M3U playlist to a manifest'
        'config:Show, save or reset the configuration'
        'check:Check that the downloader tools are installed'
        'cleanup:Remove empty directories under the output directory'
        'completion:Generate shell completion scripts'
    )

    _arguments -C \
        '(-c --config)'{-c,--config}'[Config file]:file:_files -g "*.json"' \
        '(-p --profile)'{-p,--profile}'[Downloader profile]:profile:(spotdl yt-dlp)' \
        '(-o --output)'{-o,--output}'[Output directory]:path:_directories' \
        '(-q --quality)'{-q,--quality}'[Audio quality]:quality:' \
        '(-f --format)'{-f,--format}'[Audio format]:format:(mp3 m4a flac opus ogg wav)' \
        '(-r --retries)'{-r,--retries}'[Maximum attempts per item]:count:' \
        '--retry-delay[Seconds between attempts]:seconds:' \
        '(-t --timeout)'{-t,--timeout}'[Download timeout in seconds]:seconds:' \
        '--cookies[Pass cookies or auth token]' \
        '--no-cookies[Do not pass cookies or auth token]' \
        '--no-validate[Skip the metadata pre-check]' \
        '(-y --yes)'{-y,--yes}'[Answer yes to every prompt]' \
        '(-v --verbose)'{-v,--verbose}'[Mirror log records to stderr]' \
        '1: :->cmds' \
        '*:: :->args'

    case $state in
        cmds)
            _describe -t commands 'tunefetch commands' commands
            ;;
        args)
            case $words[1] in
                saved)
                    _values 'collection' liked playlists albums
                    ;;
                batch)
                    _arguments '--validate[Validation mode]:mode:(ask available all skip)' '1:manifest:_files'
                    ;;
                import)
                    _arguments '(-m --manifest)'{-m,--manifest}'[Manifest]:file:_files' '1:playlist:_files -g "*.m3u*"'
                    ;;
                config)
                    _values 'action' show save reset
                    ;;
                cleanup)
                    _arguments '--dry-run[List directories without removing them]'
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_tunefetch "$@"
`

// FishCompletion is the fish completion script.
const FishCompletion = `# tunefetch fish completion script
# Installation: tunefetch completion fish > ~/.config/fish/completions/tunefetch.fish

set -l commands track album playlist artist search saved batch validate import config check cleanup completion

complete -c tunefetch -f
complete -c tunefetch -s c -l config -r -d 'Config file'
complete -c tunefetch -s p -l profile -x -a 'spotdl yt-dlp' -d 'Downloader profile'
complete -c tunefetch -s o -l output -r -a '(__fish_complete_directories)' -d 'Output directory'
complete -c tunefetch -s q -l quality -x -d 'Audio quality'
complete -c tunefetch -s f -l format -x -a 'mp3 m4a flac opus ogg wav' -d 'Audio format'
complete -c tunefetch -s r -l retries -x -d 'Maximum attempts per item'
complete -c tunefetch -l retry-delay -x -d 'Seconds between attempts'
complete -c tunefetch -s t -l timeout -x -d 'Download timeout in seconds'
complete -c tunefetch -l cookies -d 'Pass cookies or auth token'
complete -c tunefetch -l no-cookies -d 'Do not pass cookies or auth token'
complete -c tunefetch -l no-validate -d 'Skip the metadata pre-check'
complete -c tunefetch -s y -l yes -d 'Answer yes to every prompt'
complete -c tunefetch -s v -l verbose -d 'Mirror log records to stderr'

complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a track -d 'Download a single track'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a album -d 'Download an album'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a playlist -d 'Download a playlist'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a artist -d 'Download an artist discography'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a search -d 'Search and download the best match'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a saved -d 'Download a user collection'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a batch -d 'Process a manifest file'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a validate -d 'Check targets without downloading'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a import -d 'Append an M3U playlist to a manifest'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a config -d 'Show, save or reset the configuration'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a check -d 'Check the downloader tools'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a cleanup -d 'Remove empty directories'
complete -c tunefetch -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate shell completions'

complete -c tunefetch -n "__fish_seen_subcommand_from saved" -a 'liked playlists albums'
complete -c tunefetch -n "__fish_seen_subcommand_from batch" -F
complete -c tunefetch -n "__fish_seen_subcommand_from batch" -l validate -x -a 'ask available all skip' -d 'Validation mode'
complete -c tunefetch -n "__fish_seen_subcommand_from import" -F
complete -c tunefetch -n "__fish_seen_subcommand_from import" -s m -l manifest -r -d 'Manifest file'
complete -c tunefetch -n "__fish_seen_subcommand_from config" -a 'show save reset'
complete -c tunefetch -n "__fish_seen_subcommand_from cleanup" -l dry-run -d 'List directories without removing them'
complete -c tunefetch -n "__fish_seen_subcommand_from completion" -a 'bash zsh fish'
`
