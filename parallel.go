package transcoder

import (
	"golang.org/x/sync/errgroup"

	"github.com/basisgo/transcoder/internal/blockfmt"
)

// LevelRequest is one (image, level) transcode into its own caller-owned
// output buffer, for use with TranscodeImageLevelsParallel.
type LevelRequest struct {
	Image, Level int
	Target       blockfmt.Format
	Flags        DecodeFlags
	Out          []byte
	RowPitch     int
}

// TranscodeImageLevelsParallel farms a batch of independent level
// transcodes out to one goroutine per request (spec §5: "Encoding may
// optionally farm block-format conversion of independent slices to a
// worker pool; the pool is an external collaborator and the core imposes
// only the invariant that slices are independent"). Every request writes
// to its own disjoint Out buffer, so running them concurrently is safe;
// t itself is read-only once StartTranscoding has returned and may be
// shared across the goroutines this spawns (spec §5: "the parsed
// .basis/KTX2 byte buffer is read-only and may be shared across
// threads"). Every request runs to completion, whether or not another one
// fails; the first error is returned. Successful requests leave their
// output buffers populated, a failed one may leave its buffer partially
// written (spec §7: "partial output buffers may contain arbitrary bytes
// after a failed call").
//
// Grounded on NOT-REAL-GAMES-vulkango/vala's go.mod, which pulls in
// golang.org/x/sync for fanning independent GPU submission work out to a
// bounded goroutine pool.
func (t *Transcoder) TranscodeImageLevelsParallel(reqs []LevelRequest) error {
	var g errgroup.Group
	for i := range reqs {
		r := reqs[i]
		g.Go(func() error {
			return t.TranscodeImageLevel(r.Image, r.Level, r.Target, r.Flags, r.Out, r.RowPitch)
		})
	}
	return g.Wait()
}
