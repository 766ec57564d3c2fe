package convert

import (
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/policy"
)

// Apply runs a pass over buf, over its selection when selection is true and
// over the whole text otherwise. The buffer is written once, after the pass
// completes, and only if something changed.
func (c *Converter) Apply(buf buffer.TextBuffer, selection bool, dir Direction, p policy.Policy) (Result, error) {
	read, write := buf.ReadAll, buf.WriteAll
	if selection {
		read, write = buf.ReadSelection, buf.WriteSelection
	}
	text, err := read()
	if err != nil {
		return Result{}, err
	}
	res, err := c.Convert(text, dir, p)
	if err != nil {
		return res, err
	}
	if err := write(res.Text); err != nil {
		return Result{}, err
	}
	return res, nil
}
