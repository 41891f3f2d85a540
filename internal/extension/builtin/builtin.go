// SPDX-License-Identifier: MPL-2.0

// Package builtin holds the extensions compiled into every appvisor binary.
package builtin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/issue"
)

const (
	// StatusName logs lifecycle milestones.
	StatusName = "appvisor.Status"
	// LocalesName validates application.langs on every start.
	LocalesName = "appvisor.Locales"
)

type (
	// Status logs when the application starts, stops and reloads.
	Status struct {
		extension.Base
		starts int
	}

	// Locales rejects a start whose application.langs holds a tag that is
	// not well-formed BCP 47.
	Locales struct {
		extension.Base
		tags []language.Tag
	}
)

// Register adds the built-in extensions to c.
func Register(c *extension.Catalog) {
	c.Register(StatusName, extension.ScopeHost, func() extension.Extension { return &Status{} })
	c.Register(LocalesName, extension.ScopeApplication, func() extension.Extension { return &Locales{} })
}

func (s *Status) AfterApplicationStart(_ context.Context, h extension.Host) {
	s.starts++
	name := h.Configuration().GetOr(appconf.KeyName, "")
	if s.starts == 1 {
		h.Logger().Info("application started", "name", name, "mode", h.Mode())
		return
	}
	h.Logger().Info("application reloaded", "name", name, "reloads", s.starts-1)
}

func (s *Status) OnApplicationStop(_ context.Context, h extension.Host) {
	h.Logger().Debug("application stopping")
}

// Starts returns how many times the application started.
func (s *Status) Starts() int { return s.starts }

func (l *Locales) OnApplicationStart(_ context.Context, h extension.Host) error {
	langs := appconf.Langs(h.Configuration())
	tags := make([]language.Tag, 0, len(langs))
	var errs []error
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", lang, err))
			continue
		}
		tags = append(tags, tag)
	}
	if len(errs) > 0 {
		return issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.InvalidConfigurationId).
			WithOperation("parse " + appconf.KeyLangs).
			WithSuggestion("Use BCP 47 tags such as en, fr-CA or pt-BR").
			Wrap(errors.Join(errs...)).
			Err()
	}
	l.tags = tags
	return nil
}

// Tags returns the parsed locales of the last start.
func (l *Locales) Tags() []language.Tag { return l.tags }
