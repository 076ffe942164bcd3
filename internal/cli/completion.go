package cli

import (
	"fmt"
	"io"
	"strings"
)

// GenerateCompletion writes the completion script for shell ("bash",
// "zsh" or "fish"). methods lists the registered fit methods.
func GenerateCompletion(out io.Writer, shell string, methods []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, methods)
	case "zsh":
		return generateZshCompletion(out, methods)
	case "fish":
		return generateFishCompletion(out, methods)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

func generateBashCompletion(out io.Writer, methods []string) error {
	script := `# Bash completion script for bassfit
# Add this to your ~/.bashrc or ~/.bash_completion

_bassfit_completions() {
    local cur prev opts methods
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="--help -h --version -V --data --start-year --p0 --q0 --m0 --max-iter --method --threshold-base --horizon --auto-guess --timeout -d --details --json --server --port --no-color --output -o --quiet -q --log-level --completion"
    methods="%s all"

    case "${prev}" in
        --method)
            COMPREPLY=( $(compgen -W "${methods}" -- "${cur}") )
            return 0
            ;;
        --threshold-base)
            COMPREPLY=( $(compgen -W "market realized" -- "${cur}") )
            return 0
            ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error" -- "${cur}") )
            return 0
            ;;
        --completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        --data|--output|-o)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        --port)
            COMPREPLY=( $(compgen -W "8080 3000 5000 9000" -- "${cur}") )
            return 0
            ;;
        --timeout)
            COMPREPLY=( $(compgen -W "10s 30s 1m 5m" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _bassfit_completions bassfit
`
	_, err := fmt.Fprintf(out, script, strings.Join(methods, " "))
	return err
}

func generateZshCompletion(out io.Writer, methods []string) error {
	script := `#compdef bassfit

# Zsh completion script for bassfit
# Add this to your ~/.zshrc or place in $fpath

_bassfit() {
    local -a methods
    methods=(%s all)

    _arguments -s \
        '(-h --help)'{-h,--help}'[Show help message]' \
        '(-V --version)'{-V,--version}'[Show version information]' \
        '--data[Observation series file]:file:_files -g "*.(csv|json|yaml|yml)"' \
        '--start-year[Year of the first observation]:year:' \
        '--p0[Initial coefficient of innovation]:p:' \
        '--q0[Initial coefficient of imitation]:q:' \
        '--m0[Initial market potential]:m:' \
        '--max-iter[Optimizer iteration budget]:iterations:' \
        '--method[Fit method]:method:($methods)' \
        '--threshold-base[Category cutoff base]:base:(market realized)' \
        '--horizon[Years to forecast]:years:' \
        '--auto-guess[Grid search the initial guess]' \
        '--timeout[Maximum execution time]:duration:(10s 30s 1m 5m)' \
        '(-d --details)'{-d,--details}'[Show fit statistics and contributions]' \
        '--json[Output in JSON format]' \
        '--server[Start HTTP server mode]' \
        '--port[Server port]:port:(8080 3000 5000 9000)' \
        '--no-color[Disable colored output]' \
        '(-o --output)'{-o,--output}'[Report file path]:file:_files' \
        '(-q --quiet)'{-q,--quiet}'[Quiet mode for scripts]' \
        '--log-level[Diagnostic log level]:level:(debug info warn error)' \
        '--completion[Generate completion script]:shell:(bash zsh fish)'
}

_bassfit "$@"
`
	_, err := fmt.Fprintf(out, script, strings.Join(methods, " "))
	return err
}

func generateFishCompletion(out io.Writer, methods []string) error {
	script := `# Fish completion script for bassfit
# Add this to ~/.config/fish/completions/bassfit.fish

complete -c bassfit -f

complete -c bassfit -s h -l help -d 'Show help message'
complete -c bassfit -s V -l version -d 'Show version information'

# Input and fit
complete -c bassfit -l data -d 'Observation series file' -rF
complete -c bassfit -l start-year -d 'Year of the first observation' -x
complete -c bassfit -l p0 -d 'Initial coefficient of innovation' -x
complete -c bassfit -l q0 -d 'Initial coefficient of imitation' -x
complete -c bassfit -l m0 -d 'Initial market potential' -x
complete -c bassfit -l max-iter -d 'Optimizer iteration budget' -x
complete -c bassfit -l method -d 'Fit method' -xa '%s all'
complete -c bassfit -l threshold-base -d 'Category cutoff base' -xa 'market realized'
complete -c bassfit -l horizon -d 'Years to forecast' -x
complete -c bassfit -l auto-guess -d 'Grid search the initial guess'
complete -c bassfit -l timeout -d 'Maximum execution time' -xa '10s 30s 1m 5m'

# Output
complete -c bassfit -s d -l details -d 'Show fit statistics and contributions'
complete -c bassfit -l json -d 'Output in JSON format'
complete -c bassfit -s o -l output -d 'Report file path' -rF
complete -c bassfit -s q -l quiet -d 'Quiet mode for scripts'
complete -c bassfit -l no-color -d 'Disable colored output'
complete -c bassfit -l log-level -d 'Diagnostic log level' -xa 'debug info warn error'

# Server mode
complete -c bassfit -l server -d 'Start HTTP server mode'
complete -c bassfit -l port -d 'Server port' -xa '8080 3000 5000 9000'

complete -c bassfit -l completion -d 'Generate completion script' -xa 'bash zsh fish'
`
	_, err := fmt.Fprintf(out, script, strings.Join(methods, " "))
	return err
}
