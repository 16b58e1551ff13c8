package sandsh

import (
	shlex "github.com/anmitsu/go-shlex"
)

// Tokenize splits a raw command line into words using POSIX quoting rules.
// Single quotes, double quotes and backslash escapes are honoured. Nothing
// else is special: "$HOME", "#", ";" and "|" stay literal characters of the
// word they appear in, and ">" or ">>" only act as redirections for echo when
// they stand alone as a word.
//
// An unterminated quote or a trailing backslash is a parse error.
func Tokenize(line string) ([]string, error) {
	words, err := shlex.Split(line, true)
	if err != nil {
		return nil, newError(KindParse, "parse error: %v", err)
	}
	return words, nil
}
