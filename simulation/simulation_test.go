package simulation

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/recording"
)

type collector struct {
	rows []recording.Row
}

func (c *collector) Record(r recording.Row) error {
	c.rows = append(c.rows, r)
	return nil
}

func (c *collector) Flush() error { return nil }
func (c *collector) Close() error { return nil }

var _ = Describe("Simulation", func() {
	var (
		cfg    *config.Config
		logger *logrus.Logger
		hook   *test.Hook
	)

	BeforeEach(func() {
		cfg = &config.Config{
			Model:       config.ModelMeta,
			Destination: "run",
			DataDir:     GinkgoT().TempDir(),
			Timestep:    true,
			KRecord:     config.LoadMean,
			Replicates:  2,
			Generations: 4,
			Seed:        3,
			S:           0.05,
			N0:          100,
			K:           100,
			U:           0.01,
			R:           0.5,
			Hosts:       2,
			KMax:        2,
			Pop2Init:    []float64{1, 0},
			Pop1Init:    []float64{0, 0.5},
			Tr:          1,
			Mig:         0.1,
			LogLevel:    "info",
		}

		logger, hook = test.NewNullLogger()
	})

	It("should refuse an invalid configuration", func() {
		cfg.KMax = 0

		_, err := MakeBuilder().WithConfig(cfg).Build()

		var ce *config.ConfigurationError
		Expect(err).To(BeAssignableToTypeOf(ce))
	})

	It("should write one CSV row per generation", func() {
		extra := &collector{}
		s, err := MakeBuilder().
			WithConfig(cfg).
			WithLogger(logger).
			WithExtraRecorder(extra).
			Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.CSVPath()).To(HaveSuffix("(0).csv"))
		Expect(filepath.Dir(s.CSVPath())).To(Equal(
			filepath.Join(cfg.DataDir, "run")))
		Expect(s.DatabasePath()).To(BeEmpty())

		Expect(s.Run()).To(Succeed())
		s.Terminate()

		data, err := os.ReadFile(s.CSVPath())
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		Expect(lines).To(HaveLen(1 + 2*4))
		Expect(lines[0]).To(HavePrefix("rep,gen,pop1.0,pop2.0"))
		Expect(lines[1]).To(HavePrefix("1,1,"))
		Expect(lines[8]).To(HavePrefix("2,4,"))

		Expect(extra.rows).To(HaveLen(8))
		Expect(s.StageTimer().Calls("migrate")).To(BeNumerically(">", 0))
		Expect(s.Pipeline().Status().Replicate).To(Equal(2))

		var messages []string
		for _, e := range hook.AllEntries() {
			messages = append(messages, e.Message)
		}
		Expect(messages).To(ContainElements(
			"simulation started", "stage time", "simulation finished"))
	})

	It("should not overwrite earlier runs", func() {
		first, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).NotTo(HaveOccurred())
		defer first.Terminate()

		second, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).NotTo(HaveOccurred())
		defer second.Terminate()

		Expect(second.CSVPath()).To(HaveSuffix("(1).csv"))
	})

	It("should give the same output for the same seed", func() {
		read := func() string {
			s, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run()).To(Succeed())
			s.Terminate()

			data, err := os.ReadFile(s.CSVPath())
			Expect(err).NotTo(HaveOccurred())
			return string(data)
		}

		Expect(read()).To(Equal(read()))
	})

	It("should also fill a database when asked", func() {
		cfg.SQLite = true
		cfg.Model = config.ModelSingle

		s, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.DatabasePath()).To(HaveSuffix("(0).sqlite3"))

		Expect(s.Run()).To(Succeed())
		s.Terminate()

		db, err := sql.Open("sqlite3", s.DatabasePath())
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var n int
		Expect(db.QueryRow("SELECT COUNT(*) FROM summary").Scan(&n)).To(Succeed())
		Expect(n).To(Equal(2 * 4 * (cfg.Hosts + 1)))
	})

	It("should leave no output behind when the database cannot be created", func() {
		cfg.SQLite = true
		dir := filepath.Join(cfg.DataDir, cfg.Destination)
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

		taken := filepath.Join(dir, recording.BaseName(cfg)+"(0).sqlite3")
		Expect(os.WriteFile(taken, nil, 0o600)).To(Succeed())

		_, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).To(MatchError(ContainSubstring("creating database")))

		csvs, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		Expect(err).NotTo(HaveOccurred())
		Expect(csvs).To(BeEmpty())
	})

	It("should serve progress when monitoring", func() {
		cfg.Monitor = true

		s, err := MakeBuilder().WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.GetMonitor()).NotTo(BeNil())
		Expect(s.Run()).To(Succeed())
	})
})
