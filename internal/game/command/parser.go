package command

import (
	"errors"
	"strings"
)

// Parse errors the dispatcher turns into client notifications.
var (
	ErrUnknown = errors.New("command not recognized")
	ErrSyntax  = errors.New("too few arguments")
)

// Invocation is a parsed command line ready for its handler.
type Invocation struct {
	Spec Spec
	Args []string
}

// Parse splits a raw input line into a command invocation. The first
// whitespace token selects the command; the following Arity-1 tokens are
// taken literally and the final argument receives the whole remaining line.
//
// Postcondition: On success len(Args) == Spec.Arity and no argument is empty.
func (r *Registry) Parse(line string) (Invocation, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if word == "" {
		return Invocation{}, ErrUnknown
	}

	spec, ok := r.Lookup(word)
	if !ok {
		return Invocation{}, ErrUnknown
	}

	args := make([]string, 0, spec.Arity)
	rest = strings.TrimSpace(rest)
	for i := 0; i < spec.Arity; i++ {
		if i == spec.Arity-1 {
			if rest == "" {
				return Invocation{}, ErrSyntax
			}
			args = append(args, rest)
			break
		}
		tok, remainder, found := strings.Cut(rest, " ")
		if !found || tok == "" {
			return Invocation{}, ErrSyntax
		}
		args = append(args, tok)
		rest = strings.TrimSpace(remainder)
	}

	return Invocation{Spec: spec, Args: args}, nil
}
