package tourapi

import (
	"strings"

	"tour_guide_rag/internal/keyword"
)

const (
	overviewMaxRunes     = 600
	itemOverviewMaxRunes = 500
)

// Info is a place record ready for the prompt.
type Info struct {
	Title     string
	Overview  string
	UseTime   string
	RestDate  string
	UseSeason string
	Address   string
	Tel       string
	Images    []string

	// Partial is set when a detail call failed and some fields may be missing.
	Partial bool
}

// Field is one labelled line of an Info.
type Field struct {
	Label string
	Value string
}

// Fields returns the non-empty fields in display order.
func (i *Info) Fields() []Field {
	all := []Field{
		{"개요", i.Overview},
		{"이용시간", i.UseTime},
		{"휴무일", i.RestDate},
		{"이용시즌", i.UseSeason},
		{"주소", i.Address},
		{"연락처", i.Tel},
		{"이미지URL", strings.Join(i.Images, ", ")},
	}
	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// Format renders the header line followed by "- label: value" lines.
func (i *Info) Format() string {
	var b strings.Builder
	b.WriteString("[" + i.Title + " 관광 정보 - Tour API]")
	for _, f := range i.Fields() {
		b.WriteString("\n- " + f.Label + ": " + f.Value)
	}
	return b.String()
}

func infoFromItem(item Record, title string) *Info {
	return &Info{
		Title:    title,
		Overview: keyword.TruncateRunes(item["overview"], itemOverviewMaxRunes),
		Address:  item["addr1"],
	}
}

func mergeInfo(item, common, intro Record, title string, images []string) *Info {
	info := &Info{
		Title:     title,
		Overview:  firstNonEmpty(common["overview"], item["overview"]),
		UseTime:   intro["usetime"],
		RestDate:  intro["restdate"],
		UseSeason: intro["useseason"],
		Address:   firstNonEmpty(common["addr1"], item["addr1"]),
		Tel:       firstNonEmpty(common["tel"], item["tel"]),
	}
	if cut := keyword.TruncateRunes(info.Overview, overviewMaxRunes); cut != info.Overview {
		info.Overview = cut + "…"
	}
	if len(images) > maxImages {
		images = images[:maxImages]
	}
	info.Images = images
	return info
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
