package raster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

// Exec renders a range by running a spreadsheet application snapshot utility. The
// command arguments may contain the placeholders {input}, {sheet}, {range}, {address}
// and {output}, e.g.
//
//	snapshot --sheet {sheet} --range {range} --out {output} {input}
type Exec struct {
	Command []string
	Timeout time.Duration

	log *log.Logger
}

func NewExec(command []string, timeout time.Duration, logger *log.Logger) (*Exec, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, fmt.Errorf("missing snapshot command")
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &Exec{
		Command: command,
		Timeout: timeout,
		log:     logger,
	}, nil
}

func (e *Exec) Name() string {
	return "exec:" + filepath.Base(e.Command[0])
}

func (e *Exec) Render(ctx context.Context, wb *workbook.Workbook, sheet string, rng string, path string) error {
	_, r, err := resolve(wb, sheet, rng)
	if err != nil {
		return err
	}

	document, err := wb.Document()
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	dir, err := os.MkdirTemp("", "dailyplan-snapshot-")
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "workbook"+wb.DocumentExt())
	output := filepath.Join(dir, "snapshot.png")

	if err := os.WriteFile(input, document, 0600); err != nil {
		return &Error{Path: path, Err: err}
	}

	replacer := strings.NewReplacer(
		"{input}", input,
		"{sheet}", sheet,
		"{range}", r.String(),
		"{address}", workbook.FormatAddress(sheet, r),
		"{output}", output)

	args := make([]string, 0, len(e.Command))
	for _, arg := range e.Command {
		args = append(args, replacer.Replace(arg))
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	e.log.Debugf("exec %v", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	if out, err := cmd.CombinedOutput(); err != nil {
		return &Error{Path: path, Err: fmt.Errorf("%v failed (%v) %s", filepath.Base(args[0]), err, strings.TrimSpace(string(out)))}
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return &Error{Path: path, Err: fmt.Errorf("snapshot not created (%v)", err)}
	}

	if err := verify(data); err != nil {
		return &Error{Path: path, Err: err}
	}

	return writeFile(path, data)
}
