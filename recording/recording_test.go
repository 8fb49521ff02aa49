package recording

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/population"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Summarize", func() {
	var (
		g *population.Grid
		c *population.Census
	)

	BeforeEach(func() {
		g = population.NewGrid(2, 2, true)
		c = population.NewCensus(2)

		g.Set(1, 0, 0, 30)
		g.Set(1, 1, 1, 10)
		g.Set(2, 2, 1, 20)
		g.SetOne(1, 3, 5)
		g.SetOne(1, 1, 5)

		Expect(c.Count(g)).To(Succeed())
	})

	It("should compute mean loads", func() {
		s := Summarize(g, c, config.LoadMean)

		Expect(s).To(HaveLen(3))
		Expect(s[1].Pop2).To(Equal(40.0))
		Expect(s[1].K2).To(BeNumerically("~", 0.5, 1e-12))
		Expect(s[2].K2).To(BeNumerically("~", 3.0, 1e-12))
		Expect(s[1].K1).To(BeNumerically("~", 2.0, 1e-12))
		Expect(s[2].Pop1).To(BeZero())
		Expect(s[2].K1).To(Equal(Empty))

		Expect(s[0].Pop2).To(Equal(60.0))
		Expect(s[0].K2).To(BeNumerically("~", (0.5*40+3*20)/60, 1e-12))
		Expect(s[0].Pop1).To(Equal(10.0))
		Expect(s[0].K1).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("should compute minimum loads", func() {
		s := Summarize(g, c, config.LoadMin)

		Expect(s[1].K2).To(Equal(0.0))
		Expect(s[2].K2).To(Equal(3.0))
		Expect(s[1].K1).To(Equal(1.0))
		Expect(s[2].K1).To(Equal(Empty))
		Expect(s[0].K2).To(Equal(0.0))
		Expect(s[0].K1).To(Equal(1.0))
	})

	It("should report empty populations", func() {
		g.Clear()
		Expect(c.Count(g)).To(Succeed())

		for _, stat := range []config.LoadStat{config.LoadMean, config.LoadMin} {
			s := Summarize(g, c, stat)
			for _, h := range s {
				Expect(h.K1).To(Equal(Empty))
				Expect(h.K2).To(Equal(Empty))
			}
		}
	})

	It("should leave the one-segment layer empty when absent", func() {
		g = population.NewGrid(1, 1, false)
		c = population.NewCensus(1)
		g.Set(1, 1, 0, 4)
		Expect(c.Count(g)).To(Succeed())

		s := Summarize(g, c, config.LoadMean)

		Expect(s[1].K2).To(Equal(1.0))
		Expect(s[1].K1).To(Equal(Empty))
		Expect(s[0].K1).To(Equal(Empty))
	})
})

var _ = Describe("Layout", func() {
	row := Row{
		Replicate:  3,
		Generation: 7,
		Hosts: []HostSummary{
			{Pop1: 1, Pop2: 2, K1: 0.5, K2: 1.234},
			{Pop1: 1, Pop2: 2, K1: 0.5, K2: 1.236},
		},
	}

	It("should lay out the meta table", func() {
		l := Layout{Model: config.ModelMeta, Timestep: true, Hosts: 1}

		Expect(strings.Join(l.Header(), ",")).To(Equal(
			"rep,gen,pop1.0,pop2.0,k1.0,k2.0,pop1.1,pop2.1,k1.1,k2.1"))
		Expect(strings.Join(l.Fields(row), ",")).To(Equal(
			"3,7,1.00,2.00,0.50,1.23,1.00,2.00,0.50,1.24"))
	})

	It("should lay out the single table", func() {
		l := Layout{Model: config.ModelSingle, Timestep: false, Hosts: 1}

		Expect(l.Header()).To(Equal([]string{"rep", "pop2", "k2"}))
		Expect(l.Fields(row)).To(Equal([]string{"3", "2.00", "1.23"}))
	})
})

var _ = Describe("CSVWriter", func() {
	var (
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = &config.Config{
			Model:       config.ModelMeta,
			Timestep:    true,
			KRecord:     config.LoadMin,
			Replicates:  2,
			S:           0.05,
			N0:          1000,
			K:           1000,
			U:           0.0005,
			Generations: 100,
			R:           0.5,
			KMax:        10,
			Hosts:       1,
			Mig:         0.01,
			Tr:          1,
		}
	})

	It("should name files by parameters", func() {
		Expect(BaseName(cfg)).To(Equal(
			"meta_1,1,2,0.050,1000,1000,0.00050,100,0.00,0.50,10,1,0.01000,1.00000"))

		cfg.Model = config.ModelSingle
		Expect(BaseName(cfg)).To(Equal(
			"single_1,1,2,0.050,1000,1000,0.00050,100,0.00,0.50,10,1"))
	})

	It("should pick the first free suffix", func() {
		out := filepath.Join(dir, "runs")

		p, err := NextFreePath(out, "x", ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(out, "x(0).csv")))

		Expect(os.WriteFile(p, nil, 0o600)).To(Succeed())

		p, err = NextFreePath(out, "x", ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(filepath.Join(out, "x(1).csv")))
	})

	It("should write header and rows", func() {
		p := filepath.Join(dir, "out.csv")
		w, err := NewCSVWriter(p, LayoutOf(cfg))
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Path()).To(Equal(p))

		Expect(w.Record(Row{
			Replicate:  1,
			Generation: 1,
			Hosts:      []HostSummary{{Pop2: 10, K1: -1}, {Pop2: 10, K1: -1}},
		})).To(Succeed())
		Expect(w.Close()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		data, err := os.ReadFile(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(
			"rep,gen,pop1.0,pop2.0,k1.0,k2.0,pop1.1,pop2.1,k1.1,k2.1\n" +
				"1,1,0.00,10.00,-1.00,0.00,0.00,10.00,-1.00,0.00\n"))
	})

	It("should refuse to overwrite", func() {
		p := filepath.Join(dir, "taken.csv")
		Expect(os.WriteFile(p, nil, 0o600)).To(Succeed())

		_, err := NewCSVWriter(p, LayoutOf(cfg))

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SQLiteRecorder", func() {
	It("should store one entry per host", func() {
		base := filepath.Join(GinkgoT().TempDir(), "summary")

		r, err := NewSQLiteRecorder(base, "run1")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Path()).To(Equal(base + ".sqlite3"))

		Expect(r.Record(Row{
			Replicate:  2,
			Generation: 5,
			Hosts:      []HostSummary{{Pop2: 8, K2: 1.5}, {Pop2: 8, K2: 1.5}},
		})).To(Succeed())
		Expect(r.Flush()).To(Succeed())

		var n int
		Expect(r.QueryRow(
			"SELECT COUNT(*) FROM summary WHERE Run = 'run1' AND Replicate = 2",
		).Scan(&n)).To(Succeed())
		Expect(n).To(Equal(2))

		var k2 float64
		Expect(r.QueryRow(
			"SELECT K2 FROM summary WHERE Host = 1").Scan(&k2)).To(Succeed())
		Expect(k2).To(Equal(1.5))

		Expect(r.Close()).To(Succeed())
	})

	It("should refuse an existing file", func() {
		base := filepath.Join(GinkgoT().TempDir(), "db")
		Expect(os.WriteFile(base+".sqlite3", nil, 0o600)).To(Succeed())

		_, err := NewSQLiteRecorder(base, "run")

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MultiRecorder", func() {
	var (
		mockCtrl *gomock.Controller
		a, b     *MockRecorder
		m        *MultiRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		a = NewMockRecorder(mockCtrl)
		b = NewMockRecorder(mockCtrl)
		m = NewMultiRecorder(a, b)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should forward rows to every recorder", func() {
		row := Row{Replicate: 1}
		a.EXPECT().Record(row)
		b.EXPECT().Record(row)

		Expect(m.Record(row)).To(Succeed())
	})

	It("should stop at the first failing recorder", func() {
		boom := errors.New("disk full")
		a.EXPECT().Record(gomock.Any()).Return(boom)

		Expect(m.Record(Row{})).To(MatchError(boom))
	})

	It("should flush and close all recorders even when one fails", func() {
		boom := errors.New("boom")
		a.EXPECT().Flush().Return(boom)
		b.EXPECT().Flush()
		a.EXPECT().Close()
		b.EXPECT().Close()

		Expect(m.Flush()).To(MatchError(boom))
		Expect(m.Close()).To(Succeed())
	})
})
