/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/binfile"
	"github.com/ssargent/brokkr/pkg/layout"
)

const maxReportedMismatches = 10

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <layout> <binary>",
	Short: "Check that a layout round-trips a binary file",
	Long: `Read a binary file with the layout, encode the decoded rows again
and compare every non-padding field span against the original bytes.
A mismatch means the layout mislabels those bytes (for example an int
field over text data) and a read/write cycle would corrupt them.

Example:
  brokkr verify savegame.layout save001.sav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}
		fc, err := fieldCodec()
		if err != nil {
			return err
		}

		original, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		rows, err := binfile.NewReader(fc).Read(spec, bytes.NewReader(original), cfg.FileOffset)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}

		// Re-encode over a copy so bytes outside the layout stay put.
		reencoded := make([]byte, len(original))
		copy(reencoded, original)
		dst := &byteSpan{data: reencoded}
		if err := binfile.NewWriter(fc).Write(spec, rows, dst, cfg.FileOffset); err != nil {
			return fmt.Errorf("failed to re-encode: %w", err)
		}

		mismatches := 0
		for _, table := range spec.Tables() {
			for _, section := range table.Sections {
				pos := section.Offset + cfg.FileOffset
				for record := 0; record < table.Count; record++ {
					for _, field := range section.Fields {
						span := pos + int64(field.Length)
						if field.Kind != layout.KindPadding &&
							!bytes.Equal(original[pos:span], reencoded[pos:span]) {
							if mismatches < maxReportedMismatches {
								cmd.Printf("Mismatch: table %s record %d field %s at offset 0x%x\n",
									table.Name, record, field.Name, pos)
							}
							mismatches++
						}
						pos = span
					}
				}
			}
		}

		if mismatches > 0 {
			return fmt.Errorf("verification failed: %d mismatching field spans", mismatches)
		}
		cmd.Printf("OK: %s round-trips %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// byteSpan is an in-memory io.WriteSeeker that refuses to grow,
// matching the writer's contract of never extending its destination.
type byteSpan struct {
	data []byte
	pos  int64
}

func (b *byteSpan) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position %d", abs)
	}
	b.pos = abs
	return abs, nil
}

func (b *byteSpan) Write(p []byte) (int, error) {
	if b.pos+int64(len(p)) > int64(len(b.data)) {
		return 0, fmt.Errorf("write of %d bytes at offset %d exceeds file size %d",
			len(p), b.pos, len(b.data))
	}
	n := copy(b.data[b.pos:], p)
	b.pos += int64(n)
	return n, nil
}
