// Package feedback renders candidate feedback letters as PDF. Letters go to
// candidates whose rating fell below the feedback threshold; the content is
// built from the deterministic rating evidence so a letter never requires an
// extra AI call.
package feedback

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resufit/internal/audio"
	"resufit/internal/errors"
	"resufit/internal/types"

	"github.com/go-pdf/fpdf"
)

// Letter carries everything the PDF renderer needs.
type Letter struct {
	CandidateName string
	Score0to10    float64
	MatchedSkills []string
	MissingSkills []string
	Strengths     []string
	Improvements  []string
	YearsEstimate float64
}

// FromResult builds a Letter from a completed rating
func FromResult(result *types.RateResult) Letter {
	name := result.CandidateName
	if name == "" {
		name = "Candidate"
	}
	return Letter{
		CandidateName: name,
		Score0to10:    result.Score0to10,
		MatchedSkills: result.MatchedSkills,
		MissingSkills: result.MissingRequirements,
		Strengths:     result.Justification.OverallAssessment.KeyStrengths,
		Improvements:  result.Justification.OverallAssessment.AreasForImprovement,
		YearsEstimate: result.YearsExperience,
	}
}

// Compose writes the letter body. Tone is deliberately encouraging; this
// document may be forwarded to the candidate.
func (l Letter) Compose() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", l.CandidateName)
	b.WriteString("Thank you for taking the time to apply and for sharing your experience with us. ")
	b.WriteString("We reviewed your background carefully against the requirements of the role.\n\n")

	if len(l.Strengths) > 0 {
		b.WriteString("Your application showed real strengths: ")
		b.WriteString(joinSentence(l.Strengths))
		b.WriteString(". ")
	}
	if len(l.MatchedSkills) > 0 {
		fmt.Fprintf(&b, "In particular, your experience with %s aligned well with what the team is looking for. ",
			joinSentence(topN(l.MatchedSkills, 5)))
	}
	if l.YearsEstimate > 0 {
		fmt.Fprintf(&b, "Your %.0f years of professional experience came through clearly.\n\n", l.YearsEstimate)
	} else {
		b.WriteString("\n\n")
	}

	if len(l.MissingSkills) > 0 {
		b.WriteString("To strengthen future applications for similar roles, we would suggest building hands-on experience with ")
		b.WriteString(joinSentence(topN(l.MissingSkills, 5)))
		b.WriteString(". Demonstrating these through projects or certifications makes a measurable difference. ")
	}
	if len(l.Improvements) > 0 {
		b.WriteString("Reviewers also highlighted these development areas: ")
		b.WriteString(joinSentence(topN(l.Improvements, 3)))
		b.WriteString(".\n\n")
	} else if len(l.MissingSkills) > 0 {
		b.WriteString("\n\n")
	}

	b.WriteString("Please do not be discouraged by this outcome. Hiring decisions reflect fit against a ")
	b.WriteString("specific set of requirements at a specific moment, not your overall potential. ")
	b.WriteString("We encourage you to keep building on your strengths and to apply again as your experience grows.")

	return b.String()
}

// RenderPDF produces the feedback letter as PDF bytes
func RenderPDF(letter Letter) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, sanitizeLatin1("Career Development Feedback - "+letter.CandidateName), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 10, time.Now().Format("January 2, 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, sanitizeLatin1(letter.Compose()), "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, "Best wishes for your continued professional development!", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeFeedbackFailed,
			"Failed to render feedback PDF", err)
	}
	return buf.Bytes(), nil
}

// Save renders the letter and writes it under dir, returning the stored
// filename
func Save(dir string, letter Letter) (string, []byte, error) {
	data, err := RenderPDF(letter)
	if err != nil {
		return "", nil, err
	}

	base := audio.SanitizeFilename(letter.CandidateName + " feedback")
	if base == "" {
		base = "candidate_feedback"
	}
	filename := base + ".pdf"

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", nil, errors.NewIOError(errors.ErrCodeFeedbackFailed,
			"Failed to create feedback output directory", err).WithContext("dir", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o640); err != nil {
		return "", nil, errors.NewIOError(errors.ErrCodeFeedbackFailed,
			"Failed to write feedback PDF", err).WithContext("filename", filename)
	}

	return filename, data, nil
}

// sanitizeLatin1 replaces characters the core PDF fonts cannot encode
func sanitizeLatin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 256 {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

func topN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func joinSentence(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
