package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// confirmInteractive prompts on stderr and reads a yes/no answer from
// stdin, but only when stdin is actually a terminal; non-interactive runs
// (scripts, CI) must pass --confirm explicitly instead.
func confirmInteractive(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	fmt.Fprintf(stderrOut, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}
