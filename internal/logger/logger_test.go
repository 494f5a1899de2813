package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloo-solutions/docqa/internal/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("query answered", "top_k", 5)

			Expect(buf.String()).To(ContainSubstring("query answered"))
			Expect(buf.String()).To(ContainSubstring("top_k=5"))
		})

		It("hides debug records unless enabled", func() {
			var quiet, loud bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("hidden")
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("shown")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("shown"))
		})

		It("writes one JSON object per record", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Warn("embedding attempt failed", "attempt", 2, "max_attempts", 4)

			var parsed map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &parsed)).To(Succeed())
			Expect(parsed["msg"]).To(Equal("embedding attempt failed"))
			Expect(parsed["level"]).To(Equal("WARN"))
			Expect(parsed["attempt"]).To(BeNumerically("==", 2))
		})

		It("prefers JSON when pretty is also set", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithPretty(true))
			l.Info("both")

			Expect(json.Valid(bytes.TrimSpace(buf.Bytes()))).To(BeTrue())
		})

		It("writes pretty output", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty output", "stage", "retrieving")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
			Expect(buf.String()).To(ContainSubstring("retrieving"))
		})

		It("fans out to several writers", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("twice")

			Expect(a.String()).To(ContainSubstring("twice"))
			Expect(b.String()).To(ContainSubstring("twice"))
		})
	})

	Describe("FromFormat", func() {
		It("returns a usable logger for each format", func() {
			for _, format := range []string{"text", "json", "pretty"} {
				Expect(logger.FromFormat(format, false).Handler()).NotTo(BeNil())
			}
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		})
	})
})
