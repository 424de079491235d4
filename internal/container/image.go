package container

import "sort"

// ImageLevel groups every slice belonging to one (image, mip level) pair.
// A level normally has one slice (RGB) or two (RGB + alpha, the second
// carrying SliceFlagHasAlpha), spec §4.11.
type ImageLevel struct {
	LevelIndex int
	Width      int
	Height     int
	BlocksX    int
	BlocksY    int
	RGBSlice   SliceDesc
	AlphaSlice *SliceDesc
}

// Image groups every level belonging to one image index, ordered by level.
type Image struct {
	ImageIndex int
	Levels     []ImageLevel
}

// GroupSlices organizes a flat slice descriptor array into per-image,
// per-level groups, validating the two-slices-per-level-max invariant and
// that every image's level 0 is present (spec §4.11: "ImageInfo.totalLevels
// counts only contiguous levels starting at 0").
func GroupSlices(slices []SliceDesc) ([]Image, error) {
	byImage := map[uint32][]SliceDesc{}
	for _, s := range slices {
		byImage[s.ImageIndex] = append(byImage[s.ImageIndex], s)
	}

	imageIndices := make([]uint32, 0, len(byImage))
	for idx := range byImage {
		imageIndices = append(imageIndices, idx)
	}
	sort.Slice(imageIndices, func(i, j int) bool { return imageIndices[i] < imageIndices[j] })

	images := make([]Image, 0, len(imageIndices))
	for _, idx := range imageIndices {
		group := byImage[idx]
		byLevel := map[uint8][]SliceDesc{}
		for _, s := range group {
			byLevel[s.LevelIndex] = append(byLevel[s.LevelIndex], s)
		}
		levelIndices := make([]uint8, 0, len(byLevel))
		for l := range byLevel {
			levelIndices = append(levelIndices, l)
		}
		sort.Slice(levelIndices, func(i, j int) bool { return levelIndices[i] < levelIndices[j] })

		levels := make([]ImageLevel, 0, len(levelIndices))
		for _, l := range levelIndices {
			pair := byLevel[l]
			if len(pair) == 0 || len(pair) > 2 {
				return nil, ErrInvalidSlice
			}
			lvl := ImageLevel{LevelIndex: int(l)}
			for i := range pair {
				s := pair[i]
				if s.Flags&SliceFlagHasAlpha != 0 {
					sc := s
					lvl.AlphaSlice = &sc
				} else {
					lvl.RGBSlice = s
				}
			}
			lvl.Width = int(lvl.RGBSlice.OrigWidth)
			lvl.Height = int(lvl.RGBSlice.OrigHeight)
			lvl.BlocksX = int(lvl.RGBSlice.NumBlocksX)
			lvl.BlocksY = int(lvl.RGBSlice.NumBlocksY)
			levels = append(levels, lvl)
		}
		for i, lvl := range levels {
			if lvl.LevelIndex != i {
				return nil, ErrInvalidSlice
			}
		}
		images = append(images, Image{ImageIndex: int(idx), Levels: levels})
	}
	for i, img := range images {
		if img.ImageIndex != i {
			return nil, ErrInvalidSlice
		}
	}
	return images, nil
}
