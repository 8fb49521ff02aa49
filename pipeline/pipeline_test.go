package pipeline

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/recording"
	"github.com/sarchlab/metapop/rng"
	"github.com/sarchlab/metapop/sim"
)

var errBoom = errors.New("boom")

type nopScheduler struct{}

func (nopScheduler) Schedule(sim.Event) {}

type discard struct{}

func (discard) Record(recording.Row) error { return nil }
func (discard) Flush() error               { return nil }
func (discard) Close() error               { return nil }

type rows struct {
	discard
	got []recording.Row
}

func (r *rows) Record(row recording.Row) error {
	r.got = append(r.got, row)
	return nil
}

func metaConfig() *config.Config {
	return &config.Config{
		Model:       config.ModelMeta,
		Timestep:    true,
		KRecord:     config.LoadMean,
		Replicates:  1,
		Generations: 5,
		Seed:        1,
		S:           0,
		N0:          1000,
		K:           1000,
		U:           0,
		C:           0,
		R:           0,
		Hosts:       1,
		KMax:        1,
		Pop2Init:    []float64{1},
		Pop1Init:    []float64{0},
		Tr:          1,
		Mig:         0,
	}
}

var _ = Describe("Pipeline", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockRecorder
		engine   *sim.SerialEngine
		cfg      *config.Config
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockRecorder(mockCtrl)
		engine = sim.NewSerialEngine()
		cfg = metaConfig()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	build := func(s Sampler, r recording.Recorder) *Pipeline {
		return MakeBuilder().
			WithConfig(cfg).
			WithEngine(engine).
			WithSampler(s).
			WithRecorder(r).
			Build("pipeline")
	}

	It("should pick the stages of the model", func() {
		names := func(stages []Stage) []string {
			var n []string
			for _, s := range stages {
				n = append(n, s.Name())
			}
			return n
		}

		Expect(names(StagesFor(cfg))).To(Equal(
			[]string{"mutate", "reassort", "reproduce", "migrate"}))

		cfg.Model = config.ModelSingle
		Expect(names(StagesFor(cfg))).To(Equal(
			[]string{"mutate", "reassort", "reproduce"}))
	})

	It("should seed the hosts from the initial proportions", func() {
		cfg.Hosts = 2
		cfg.Pop2Init = []float64{0.25, 0.75}
		cfg.Pop1Init = []float64{0.5, 0}
		p := build(&expectation{}, recorder)

		Expect(p.Seed()).To(Succeed())

		Expect(p.Store().Current().At(1, 0, 0)).To(Equal(250.0))
		Expect(p.Store().Current().At(2, 0, 0)).To(Equal(750.0))
		Expect(p.Store().Current().OneAt(1, 0)).To(Equal(500.0))
		Expect(p.Census().Total()).To(Equal(1500.0))
	})

	It("should split the initial population in the single model", func() {
		cfg.Model = config.ModelSingle
		cfg.Hosts = 4
		p := build(&expectation{}, recorder)

		Expect(p.Seed()).To(Succeed())

		Expect(p.Store().Current().At(3, 0, 0)).To(Equal(250.0))
		Expect(p.Census().TotalTwo()).To(Equal(1000.0))
	})

	It("should hold a population at capacity steady in expectation", func() {
		r := &rows{}
		p := build(&expectation{}, r)

		p.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(r.got).To(HaveLen(5))
		for i, row := range r.got {
			Expect(row.Replicate).To(Equal(1))
			Expect(row.Generation).To(Equal(i + 1))
			Expect(row.Total().Pop2).To(BeNumerically("~", 1000, 1e-9))
			Expect(row.Total().K2).To(Equal(0.0))
			Expect(row.Total().K1).To(Equal(recording.Empty))
		}
	})

	It("should average to the stable size over replicates", func() {
		cfg.Replicates = 200
		cfg.Generations = 1
		r := &rows{}
		p := build(rng.New(7), r)

		p.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(r.got).To(HaveLen(200))
		sum := 0.0
		for _, row := range r.got {
			sum += row.Total().Pop2
		}
		Expect(sum / 200).To(BeNumerically("~", 1000, 3*math.Sqrt(1000.0/200)))
	})

	It("should record once per replicate without timestep", func() {
		cfg.Timestep = false
		cfg.Replicates = 3

		gomock.InOrder(
			recorder.EXPECT().Record(gomock.Any()).Do(func(row recording.Row) {
				Expect(row.Replicate).To(Equal(1))
				Expect(row.Generation).To(Equal(5))
			}),
			recorder.EXPECT().Record(gomock.Any()).Times(2),
		)

		p := build(&expectation{}, recorder)
		p.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(engine.CurrentTime()).To(Equal(sim.VTime(14)))
		Expect(p.Status().Replicate).To(Equal(3))
	})

	Context("when the population is extinct", func() {
		BeforeEach(func() {
			cfg.Pop2Init = []float64{0}
		})

		It("should keep recording empty generations without drawing", func() {
			s := &expectation{}
			recorder.EXPECT().Record(gomock.Any()).Do(func(row recording.Row) {
				Expect(row.Total().Pop2).To(BeZero())
				Expect(row.Total().K2).To(Equal(recording.Empty))
			}).Times(5)

			p := build(s, recorder)
			p.Start()
			Expect(engine.Run()).To(Succeed())

			Expect(s.means).To(BeEmpty())
			Expect(p.Status().Extinct).To(BeTrue())
		})

		It("should stop the replicate when running until extinction", func() {
			cfg.UntilExtinction = true
			cfg.Replicates = 2

			p := build(&expectation{}, recorder)
			p.Start()
			Expect(engine.Run()).To(Succeed())

			Expect(engine.CurrentTime()).To(Equal(sim.VTime(5)))
		})

		It("should still record the replicate once without timestep", func() {
			cfg.UntilExtinction = true
			cfg.Timestep = false
			recorder.EXPECT().Record(gomock.Any()).Do(func(row recording.Row) {
				Expect(row.Generation).To(Equal(0))
			})

			p := build(&expectation{}, recorder)
			p.Start()
			Expect(engine.Run()).To(Succeed())
		})
	})

	It("should report stages through hooks", func() {
		var seen []string
		p := build(&expectation{}, discard{})
		p.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			switch ctx.Pos {
			case HookPosStageStart:
				seen = append(seen, "start "+ctx.Item.(Stage).Name())
			case HookPosStageEnd:
				seen = append(seen, "end "+ctx.Item.(Stage).Name())
			}
		}))

		Expect(p.Seed()).To(Succeed())
		Expect(p.Step()).To(Succeed())

		Expect(seen).To(Equal([]string{
			"start mutate", "end mutate",
			"start reassort", "end reassort",
			"start reproduce", "end reproduce",
			"start migrate", "end migrate",
		}))
	})

	It("should fail the run when recording fails", func() {
		recorder.EXPECT().Record(gomock.Any()).Return(errBoom)

		p := build(&expectation{}, recorder)
		p.Start()

		Expect(engine.Run()).To(MatchError(errBoom))
	})

	It("should be reproducible from the seed", func() {
		cfg.U = 0.05
		cfg.S = 0.02
		cfg.R = 0.3
		cfg.KMax = 3
		cfg.Hosts = 2
		cfg.Pop2Init = []float64{0.5, 0.5}
		cfg.Pop1Init = []float64{0.1, 0}
		cfg.Mig = 0.05

		run := func() []recording.Row {
			engine = sim.NewSerialEngine()
			r := &rows{}
			p := build(rng.New(11), r)
			p.Start()
			Expect(engine.Run()).To(Succeed())
			return r.got
		}

		Expect(run()).To(Equal(run()))
	})
})
