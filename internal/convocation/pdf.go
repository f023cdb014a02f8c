package convocation

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	titleStyle   = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}
	subtitleText = props.Text{Size: 11, Align: align.Center}
	headingStyle = props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}
	entryStyle   = props.Text{Size: 10, Left: 4}
	footerStyle  = props.Text{Size: 8, Style: fontstyle.Italic, Align: align.Center}
)

// Render produces the PDF bytes for doc.
func Render(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(
		text.NewRow(10, "CONVOCAZIONE", titleStyle),
		text.NewRow(8, doc.TournamentName, subtitleText),
		text.NewRow(6, doc.TournamentDates, subtitleText),
	)
	if doc.ClubName != "" {
		m.AddRows(text.NewRow(6, doc.ClubName, subtitleText))
	}
	m.AddRows(line.NewRow(6))

	for _, s := range doc.Sections {
		m.AddRows(text.NewRow(9, s.Role, headingStyle))
		for _, r := range s.Referees {
			m.AddRows(text.NewRow(6, Line(r), entryStyle))
		}
	}

	m.AddRows(line.NewRow(6))
	if doc.ZoneEmail != "" {
		m.AddRows(text.NewRow(5, "Comitato di zona: "+doc.ZoneEmail, footerStyle))
	}
	if doc.ClubEmail != "" {
		m.AddRows(text.NewRow(5, "Circolo: "+doc.ClubEmail, footerStyle))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate convocation pdf: %w", err)
	}
	return out.GetBytes(), nil
}
