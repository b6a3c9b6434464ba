package instr

import (
	"bufio"
	"errors"
	"io"
)

// Scan reads every instruction line from r, stopping at the first "==="
// marker or at EOF, whichever comes first. Blank and comment-only lines are
// skipped; a malformed line aborts the scan with its InvalidInstructionError.
func Scan(r io.Reader) ([]Command, error) {
	sc := bufio.NewScanner(r)
	var cmds []Command
	for sc.Scan() {
		cmd, err := ParseLine(sc.Text())
		if errors.Is(err, ErrEndMarker) {
			return cmds, nil
		}
		if err != nil {
			return cmds, err
		}
		if cmd != nil {
			cmds = append(cmds, *cmd)
		}
	}
	if err := sc.Err(); err != nil {
		return cmds, err
	}
	return cmds, nil
}
