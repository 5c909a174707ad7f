package cmd

import (
	"fmt"

	"github.com/brainboost/codesnap/chunking"
	"github.com/spf13/cobra"
)

// compressFlags are shared by the snapshot and report commands.
type compressFlags struct {
	compress  int
	chunks    int
	chunkSize int64
}

func (f *compressFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.compress, "compress", 0, "Split the snapshot into parts (0 or 1).")
	cmd.Flags().IntVar(&f.chunks, "amount-of-chunks", 0, "Number of parts to split the snapshot into.")
	cmd.Flags().Int64Var(&f.chunkSize, "size-of-chunk", 0, "Maximum size of each part in bytes.")
	cmd.MarkFlagsMutuallyExclusive("amount-of-chunks", "size-of-chunk")
}

func (f *compressFlags) validate() error {
	if f.compress != 0 && f.compress != 1 {
		return fmt.Errorf("invalid --compress %d (use 0 or 1)", f.compress)
	}
	if f.chunks < 0 || f.chunkSize < 0 {
		return fmt.Errorf("--amount-of-chunks and --size-of-chunk must not be negative")
	}
	return nil
}

func (f *compressFlags) enabled() bool {
	return f.compress == 1
}

// splitOptions with neither option set splits into a single part.
func (f *compressFlags) splitOptions() chunking.Options {
	return chunking.Options{Chunks: f.chunks, ChunkSize: f.chunkSize}
}
