package reference

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// Paths locates the static reference files on disk.
type Paths struct {
	Catalog      string
	TutorContent string
	FAQ          string
}

// Load reads every reference file. A missing or invalid file falls back to
// the built-in default and is logged; Load itself never fails.
func Load(paths Paths) reference.Data {
	log := logger.Component("reference")
	data := reference.Defaults()

	var catalog reference.Catalog
	if err := readJSON(paths.Catalog, &catalog); err != nil {
		log.WithError(err).Warn("catalog unavailable, using built-in catalog")
	} else {
		if catalog.Recipes == nil {
			catalog.Recipes = map[string]reference.Recipe{}
		}
		data.Catalog = catalog
	}

	var concepts []reference.TutorConcept
	if err := readJSON(paths.TutorContent, &concepts); err != nil {
		log.WithError(err).Warn("tutor content unavailable, using default content")
	} else if len(concepts) > 0 {
		data.TutorConcepts = concepts
	}

	var faq reference.CompanyFAQ
	if err := readJSON(paths.FAQ, &faq); err != nil {
		log.WithError(err).Debug("company faq unavailable, using built-in faq")
	} else if faq.CompanyName != "" {
		data.FAQ = faq
	}

	log.WithFields(logrus.Fields{
		"items":    len(data.Catalog.Items()),
		"recipes":  len(data.Catalog.Recipes),
		"concepts": len(data.TutorConcepts),
		"faqs":     len(data.FAQ.FAQs),
	}).Info("reference data loaded")
	return data
}

func readJSON(path string, dst interface{}) error {
	if path == "" {
		return fmt.Errorf("no path configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
