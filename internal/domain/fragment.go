package domain

import "image"

type FragmentKind int

const (
	FragmentText FragmentKind = iota + 1
	FragmentImage
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "text"
	case FragmentImage:
		return "image"
	default:
		return "unknown"
	}
}

// Image is a decoded picture along with the bytes it was decoded from.
type Image struct {
	Pixels   image.Image
	Data     []byte
	MIMEType string
	Format   string
}

// Fragment is one piece of ingested attachment content.
type Fragment struct {
	Kind  FragmentKind
	Text  string
	Image *Image
}

func TextFragment(text string) Fragment {
	return Fragment{Kind: FragmentText, Text: text}
}

func ImageFragment(img *Image) Fragment {
	return Fragment{Kind: FragmentImage, Image: img}
}
