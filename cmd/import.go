package main

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clearcomply/assess-cli/internal/model"
)

var (
	importTemplatePath   string
	importVendorsPath    string
	importAssessmentPath string
	importPrioritiesPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import templates, vendors, assessments, or priorities",
	Long: `Import reference data into the store.

Templates and assessments are YAML documents; the vendor catalog is CSV
with pipe-separated list cells. Assessment answers come pre-scored from
the upstream AI analysis pass; this tool never produces scores of its own.

Examples:
  # Load a questionnaire template
  import --template soc2.yaml

  # Load the vendor catalog
  import --vendors vendors.csv

  # Load an analyzed assessment (answers included)
  import --assessment acme-q3.yaml --priorities acme-priorities.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importTemplatePath == "" && importVendorsPath == "" &&
			importAssessmentPath == "" && importPrioritiesPath == "" {
			return eris.New("import: nothing to do; pass --template, --vendors, --assessment, or --priorities")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if importTemplatePath != "" {
			var tpl model.Template
			if err := readYAML(importTemplatePath, &tpl); err != nil {
				return err
			}
			if err := s.SaveTemplate(ctx, tpl); err != nil {
				return eris.Wrap(err, "import template")
			}
			zap.L().Info("template imported",
				zap.String("id", tpl.ID),
				zap.Int("sections", len(tpl.Sections)),
			)
		}

		if importVendorsPath != "" {
			vendors, err := readVendorCSV(importVendorsPath)
			if err != nil {
				return err
			}
			n, err := s.SaveVendors(ctx, vendors)
			if err != nil {
				return eris.Wrap(err, "import vendors")
			}
			zap.L().Info("vendors imported", zap.Int("count", n))
		}

		if importAssessmentPath != "" {
			var doc assessmentDoc
			if err := readYAML(importAssessmentPath, &doc); err != nil {
				return err
			}
			a, err := doc.toAssessment()
			if err != nil {
				return err
			}
			if err := s.SaveAssessment(ctx, a); err != nil {
				return eris.Wrap(err, "import assessment")
			}
			zap.L().Info("assessment imported",
				zap.String("id", a.ID),
				zap.String("org", a.OrgName),
				zap.Int("answers", len(a.Answers)),
			)
		}

		if importPrioritiesPath != "" {
			var p model.OrganizationPriorities
			if err := readYAML(importPrioritiesPath, &p); err != nil {
				return err
			}
			if err := s.SavePriorities(ctx, p); err != nil {
				return eris.Wrap(err, "import priorities")
			}
			zap.L().Info("priorities imported", zap.String("org", p.OrgID))
		}

		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importTemplatePath, "template", "", "template YAML file")
	f.StringVar(&importVendorsPath, "vendors", "", "vendor catalog CSV file")
	f.StringVar(&importAssessmentPath, "assessment", "", "analyzed assessment YAML file")
	f.StringVar(&importPrioritiesPath, "priorities", "", "organization priorities YAML file")
	rootCmd.AddCommand(importCmd)
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "import: read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "import: parse %s", path)
	}
	return nil
}

// assessmentDoc is the YAML wire format for an analyzed assessment. The
// answers carry string enums from the upstream analyzer; parsing degrades
// unknown tiers to TIER_0 rather than rejecting the document.
type assessmentDoc struct {
	ID         string `yaml:"id"`
	OrgID      string `yaml:"org_id"`
	OrgName    string `yaml:"org_name"`
	TemplateID string `yaml:"template_id"`
	Answers    []struct {
		QuestionID         string  `yaml:"question_id"`
		Score              float64 `yaml:"score"`
		Skipped            bool    `yaml:"skipped"`
		EvidenceTier       string  `yaml:"evidence_tier"`
		Explanation        string  `yaml:"explanation"`
		SourceRef          string  `yaml:"source_ref"`
		QuestionWeight     float64 `yaml:"question_weight"`
		SectionID          string  `yaml:"section_id"`
		SectionWeight      float64 `yaml:"section_weight"`
		RegulatoryPriority int     `yaml:"regulatory_priority"`
		CategoryTag        string  `yaml:"category_tag"`
		Foundational       bool    `yaml:"foundational"`
	} `yaml:"answers"`
}

func (d assessmentDoc) toAssessment() (model.Assessment, error) {
	if d.OrgID == "" || d.TemplateID == "" {
		return model.Assessment{}, eris.New("import: assessment requires org_id and template_id")
	}
	a := model.Assessment{
		ID:         d.ID,
		OrgID:      d.OrgID,
		OrgName:    d.OrgName,
		TemplateID: d.TemplateID,
		Status:     model.StatusInProgress,
	}
	for _, ans := range d.Answers {
		if !ans.Skipped && (ans.Score < 0 || ans.Score > 5) {
			return model.Assessment{}, eris.Errorf("import: answer %s score %.1f out of range 0-5", ans.QuestionID, ans.Score)
		}
		a.Answers = append(a.Answers, model.Answer{
			QuestionID:         ans.QuestionID,
			Score:              ans.Score,
			Skipped:            ans.Skipped,
			EvidenceTier:       model.ParseEvidenceTier(ans.EvidenceTier),
			Explanation:        ans.Explanation,
			SourceRef:          ans.SourceRef,
			QuestionWeight:     ans.QuestionWeight,
			SectionID:          ans.SectionID,
			SectionWeight:      ans.SectionWeight,
			RegulatoryPriority: ans.RegulatoryPriority,
			CategoryTag:        ans.CategoryTag,
			Foundational:       ans.Foundational,
		})
	}
	return a, nil
}

// vendorCSVColumns is the expected header of the vendor catalog export.
var vendorCSVColumns = []string{
	"id", "name", "categories", "target_segments", "geographies",
	"price_range", "features", "deployment_models",
	"implementation_weeks", "rating", "review_count",
}

func readVendorCSV(path string) ([]model.Vendor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "import: read csv header")
	}
	if len(header) != len(vendorCSVColumns) {
		return nil, eris.Errorf("import: expected %d columns, got %d", len(vendorCSVColumns), len(header))
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "import: read csv rows")
	}

	vendors := make([]model.Vendor, 0, len(records))
	for i, rec := range records {
		weeks, err := strconv.Atoi(strings.TrimSpace(rec[8]))
		if err != nil {
			return nil, eris.Wrapf(err, "import: row %d implementation_weeks", i+2)
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(rec[9]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "import: row %d rating", i+2)
		}
		reviews, err := strconv.Atoi(strings.TrimSpace(rec[10]))
		if err != nil {
			return nil, eris.Wrapf(err, "import: row %d review_count", i+2)
		}

		var segments []model.CompanySize
		for _, s := range splitList(rec[3]) {
			segments = append(segments, model.CompanySize(s))
		}

		vendors = append(vendors, model.Vendor{
			ID:                  strings.TrimSpace(rec[0]),
			Name:                strings.TrimSpace(rec[1]),
			Categories:          splitList(rec[2]),
			TargetSegments:      segments,
			Geographies:         splitList(rec[4]),
			PriceRange:          model.CostRange(strings.TrimSpace(rec[5])),
			Features:            splitList(rec[6]),
			DeploymentModels:    splitList(rec[7]),
			ImplementationWeeks: weeks,
			Rating:              rating,
			ReviewCount:         reviews,
		})
	}
	return vendors, nil
}

// splitList parses a pipe-separated CSV cell into trimmed values.
func splitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, "|") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
