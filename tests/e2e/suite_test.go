//go:build integration

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jnardiello/printfarmhq-sub002/internal/migrator"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	materialrepo "github.com/jnardiello/printfarmhq-sub002/internal/repository/material"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	printerrepo "github.com/jnardiello/printfarmhq-sub002/internal/repository/printer"
	printjobrepo "github.com/jnardiello/printfarmhq-sub002/internal/repository/printjob"
	productrepo "github.com/jnardiello/printfarmhq-sub002/internal/repository/product"
	jobconsumer "github.com/jnardiello/printfarmhq-sub002/internal/service/consumer/printjob"
	ledgersvc "github.com/jnardiello/printfarmhq-sub002/internal/service/ledger"
	printersvc "github.com/jnardiello/printfarmhq-sub002/internal/service/printer"
	printjobsvc "github.com/jnardiello/printfarmhq-sub002/internal/service/printjob"
	stockproducer "github.com/jnardiello/printfarmhq-sub002/internal/service/producer/stock"
	productsvc "github.com/jnardiello/printfarmhq-sub002/internal/service/product"
	registrysvc "github.com/jnardiello/printfarmhq-sub002/internal/service/registry"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka/consumer"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka/producer"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

const (
	pgImage = "postgres:17.0-alpine3.20"

	pgUser       = "printfarm-user"
	pgPass       = "12CXZ43_U_w"
	pgDB         = "printfarm-db"
	migrationDir = "../../migrations"

	kafkaImage = "confluentinc/cp-kafka:7.6.1"

	topicStockLow    = "material.stock.low"
	topicJobFinished = "printjob.finished"
)

var (
	ctx context.Context

	pgC  *postgres.PostgresContainer
	pool *pgxpool.Pool

	kafkaC       tc.Container
	kafkaBrokers []string

	txm *pg.TxManager

	ledger interface {
		PostPurchase(ctx context.Context, materialID uuid.UUID, params model.PurchaseParams) (*model.Material, error)
		DeletePurchase(ctx context.Context, eventID uuid.UUID) (*model.Material, error)
		Purchases(ctx context.Context, materialID uuid.UUID) ([]model.PurchaseEvent, error)
		ConsumeTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta, allowNegative bool) ([]model.Material, error)
		RestoreTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta) ([]model.Material, error)
		PostPurchaseTx(ctx context.Context, q pg.Querier, m *model.Material, params model.PurchaseParams) error
	}
	registry interface {
		CreateMaterial(ctx context.Context, params model.CreateMaterialParams) (*model.CreateMaterialResult, error)
		Material(ctx context.Context, id uuid.UUID) (*model.Material, error)
	}
	products interface {
		CreateProduct(ctx context.Context, params model.CreateProductParams) (*model.Product, error)
		ProductCost(ctx context.Context, id uuid.UUID) (*model.ProductCost, error)
	}
	printers interface {
		CreatePrinter(ctx context.Context, params model.CreatePrinterParams) (*model.PrinterProfile, error)
	}
	jobs interface {
		Create(ctx context.Context, params model.CreateJobParams) (*model.CreateJobResult, error)
		Job(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
		Cancel(ctx context.Context, id uuid.UUID) error
		Complete(ctx context.Context, id uuid.UUID) error
	}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Inventory Engine Integration Suite")
}

var _ = BeforeSuite(func() {
	ctx = context.Background()
	logger.SetNopLogger()

	By("starting postgres container")
	var err error
	pgC, err = postgres.Run(ctx,
		pgImage,
		postgres.WithDatabase(pgDB),
		postgres.WithUsername(pgUser),
		postgres.WithPassword(pgPass),
		tc.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	dbURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	By("creating pgx pool")
	pool, err = pgxpool.New(ctx, dbURL)
	Expect(err).NotTo(HaveOccurred())

	Eventually(func(g Gomega) {
		g.Expect(pool.Ping(ctx)).To(Succeed())
	}).WithTimeout(10 * time.Second).WithPolling(200 * time.Millisecond).Should(Succeed())

	By("running migrations")
	m := migrator.NewMigrator(stdlib.OpenDBFromPool(pool), migrationDir)
	Expect(m.Up()).To(Succeed())
	defer m.Close()

	By("starting kafka container (cp-kafka)")
	kafkaC, kafkaBrokers, err = runKafka(ctx)
	Expect(err).NotTo(HaveOccurred())

	By("creating kafka topics")
	Expect(createTopics(kafkaBrokers, topicStockLow, topicJobFinished)).To(Succeed())

	By("wiring services against the containers")
	txm = pg.NewTxManager(pool)

	producerConfig := sarama.NewConfig()
	producerConfig.Version = sarama.V4_0_0_0
	producerConfig.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(kafkaBrokers, producerConfig)
	Expect(err).NotTo(HaveOccurred())

	notifier := stockproducer.NewProducer(producer.NewProducer(p, topicStockLow, logger.L()))

	materials := materialrepo.NewMaterialRepository()
	ledger = ledgersvc.NewLedgerService(materials, txm, notifier)
	registry = registrysvc.NewRegistryService(materials, ledger, txm)
	products = productsvc.NewProductService(productrepo.NewProductRepository(), materials, txm)
	printers = printersvc.NewPrinterService(printerrepo.NewPrinterRepository(), txm)
	jobs = printjobsvc.NewPrintJobService(
		printjobrepo.NewPrintJobRepository(),
		productrepo.NewProductRepository(),
		printerrepo.NewPrinterRepository(),
		materials,
		ledger,
		txm,
		notifier,
	)

	By("starting job finished consumer in background")
	consumerConfig := sarama.NewConfig()
	consumerConfig.Version = sarama.V4_0_0_0
	consumerConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	consumerConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(kafkaBrokers, "printfarm-it", consumerConfig)
	Expect(err).NotTo(HaveOccurred())

	c := consumer.NewConsumer(group, []string{topicJobFinished}, logger.L())
	handler := jobconsumer.NewHandler(jobs)

	consumerErrCh := make(chan error)
	go func() {
		consumerErrCh <- c.Consume(ctx, handler.Handle)
	}()
	Consistently(consumerErrCh, 2*time.Second).ShouldNot(Receive())
})

var _ = AfterSuite(func() {
	if pool != nil {
		pool.Close()
	}
	if pgC != nil {
		_ = pgC.Terminate(ctx)
	}
	if kafkaC != nil {
		_ = kafkaC.Terminate(ctx)
	}
})

var _ = BeforeEach(func() {
	By("cleaning tables")
	_, err := pool.Exec(ctx, `TRUNCATE TABLE print_jobs, products, printer_profiles, materials RESTART IDENTITY CASCADE`)
	Expect(err).NotTo(HaveOccurred())
})

func createMaterial(estimate string, purchase *model.PurchaseParams) uuid.UUID {
	res, err := registry.CreateMaterial(ctx, model.CreateMaterialParams{
		Color:              "Galaxy Black " + uuid.NewString()[:8],
		Brand:              "Prusament",
		Composition:        "PLA",
		EstimatedCostPerKg: dec(estimate),
		Purchase:           purchase,
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(res.AlreadyExists).To(BeFalse())
	return res.Material.ID
}

var _ = Describe("Material ledger", func() {
	It("folds purchases into the weighted average", func() {
		id := createMaterial("30.00", &model.PurchaseParams{
			QuantityKg: dec("10"),
			PricePerKg: dec("20"),
			AcquiredAt: time.Now(),
		})

		By("posting a second purchase at a higher price")
		m, err := ledger.PostPurchase(ctx, id, model.PurchaseParams{
			QuantityKg: dec("10"),
			PricePerKg: dec("30"),
			AcquiredAt: time.Now(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.UnitCost.Equal(dec("25"))).To(BeTrue())
		Expect(m.OnHandKg.Equal(dec("20"))).To(BeTrue())
		Expect(m.Tracked).To(BeTrue())

		By("verifying the row via direct SQL")
		var onHand, cost decimal.Decimal
		err = pool.QueryRow(ctx,
			`SELECT on_hand_kg, unit_cost FROM materials WHERE id = $1`, id,
		).Scan(&onHand, &cost)
		Expect(err).NotTo(HaveOccurred())
		Expect(onHand.Equal(dec("20"))).To(BeTrue())
		Expect(cost.Equal(dec("25"))).To(BeTrue())
	})

	It("replays history when a purchase is deleted", func() {
		id := createMaterial("30.00", &model.PurchaseParams{
			QuantityKg: dec("10"),
			PricePerKg: dec("20"),
			AcquiredAt: time.Now(),
		})

		second, err := ledger.PostPurchase(ctx, id, model.PurchaseParams{
			QuantityKg: dec("10"),
			PricePerKg: dec("30"),
			AcquiredAt: time.Now(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.UnitCost.Equal(dec("25"))).To(BeTrue())

		By("finding the second purchase event")
		events, err := ledger.Purchases(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(2))

		var eventID uuid.UUID
		for _, e := range events {
			if e.PricePerKg.Equal(dec("30")) {
				eventID = e.ID
			}
		}
		Expect(eventID).NotTo(Equal(uuid.Nil))

		By("deleting it and expecting the original cost back")
		m, err := ledger.DeletePurchase(ctx, eventID)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.UnitCost.Equal(dec("20"))).To(BeTrue())
		Expect(m.OnHandKg.Equal(dec("10"))).To(BeTrue())
	})

	It("reports duplicate identity as a value", func() {
		params := model.CreateMaterialParams{
			Color:              "Signal White",
			Brand:              "Polymaker",
			Composition:        "PETG",
			EstimatedCostPerKg: dec("24.00"),
		}

		first, err := registry.CreateMaterial(ctx, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.AlreadyExists).To(BeFalse())

		second, err := registry.CreateMaterial(ctx, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.AlreadyExists).To(BeTrue())
		Expect(second.Material.ID).To(Equal(first.Material.ID))
	})
})

var _ = Describe("Print jobs", func() {
	var (
		materialID uuid.UUID
		productID  uuid.UUID
		printerID  uuid.UUID
	)

	BeforeEach(func() {
		materialID = createMaterial("30.00", &model.PurchaseParams{
			QuantityKg: dec("5"),
			PricePerKg: dec("20"),
			AcquiredAt: time.Now(),
		})

		p, err := products.CreateProduct(ctx, model.CreateProductParams{
			SKU:  "benchy-" + uuid.NewString()[:8],
			Name: "Benchy",
			BOM: []model.BOMLine{
				{MaterialID: materialID, QuantityKg: dec("0.050")},
			},
			AdditionalPartsCost: dec("0.50"),
			TimeToProduce:       90 * time.Minute,
		})
		Expect(err).NotTo(HaveOccurred())
		productID = p.ID

		pr, err := printers.CreatePrinter(ctx, model.CreatePrinterParams{
			Name:                  "Prusa MK4",
			PurchasePrice:         dec("900"),
			ExpectedLifetimeHours: dec("9000"),
		})
		Expect(err).NotTo(HaveOccurred())
		printerID = pr.ID
	})

	It("deducts stock and snapshots COGS atomically", func() {
		res, err := jobs.Create(ctx, model.CreateJobParams{
			Products:      []model.JobProduct{{ProductID: productID, Quantity: 2}},
			Printers:      []model.JobPrinter{{PrinterProfileID: printerID, HoursUsed: dec("3"), Units: 1}},
			PackagingCost: dec("1.00"),
		})
		Expect(err).NotTo(HaveOccurred())

		// 2 * (0.050*20 + 0.50) + 900/9000*3 + 1.00 = 4.30
		Expect(res.COGS.Equal(dec("4.30"))).To(BeTrue())

		m, err := registry.Material(ctx, materialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.OnHandKg.Equal(dec("4.9"))).To(BeTrue())
	})

	It("rejects the whole job on insufficient stock", func() {
		_, err := jobs.Create(ctx, model.CreateJobParams{
			Products: []model.JobProduct{{ProductID: productID, Quantity: 200}},
		})
		Expect(err).To(MatchError(model.ErrInsufficientStock))

		By("verifying nothing was deducted and no job row exists")
		m, err := registry.Material(ctx, materialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.OnHandKg.Equal(dec("5"))).To(BeTrue())

		var count int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM print_jobs`).Scan(&count)).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("restores the deduction set on cancel", func() {
		res, err := jobs.Create(ctx, model.CreateJobParams{
			Products: []model.JobProduct{{ProductID: productID, Quantity: 4}},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(jobs.Cancel(ctx, res.ID)).To(Succeed())

		m, err := registry.Material(ctx, materialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.OnHandKg.Equal(dec("5"))).To(BeTrue())

		job, err := jobs.Job(ctx, res.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Status).To(Equal(model.StatusCancelled))
		Expect(job.Deducted).To(BeFalse())

		By("cancelling again conflicts")
		Expect(jobs.Cancel(ctx, res.ID)).To(MatchError(model.ErrJobConflict))
	})

	It("keeps the COGS snapshot when prices move later", func() {
		res, err := jobs.Create(ctx, model.CreateJobParams{
			Products: []model.JobProduct{{ProductID: productID, Quantity: 1}},
		})
		Expect(err).NotTo(HaveOccurred())
		created := res.COGS

		By("posting an expensive purchase after the job was created")
		_, err = ledger.PostPurchase(ctx, materialID, model.PurchaseParams{
			QuantityKg: dec("5"),
			PricePerKg: dec("100"),
			AcquiredAt: time.Now(),
		})
		Expect(err).NotTo(HaveOccurred())

		By("COP reflects the new cost, the job snapshot does not")
		pc, err := products.ProductCost(ctx, productID)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.COP.GreaterThan(created)).To(BeTrue())

		job, err := jobs.Job(ctx, res.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.COGS.Equal(created)).To(BeTrue())
	})

	It("completes a job from a printer finish event", func() {
		res, err := jobs.Create(ctx, model.CreateJobParams{
			Products: []model.JobProduct{{ProductID: productID, Quantity: 1}},
		})
		Expect(err).NotTo(HaveOccurred())

		By("publishing the finish event the way the printer agent does")
		cfg := sarama.NewConfig()
		cfg.Version = sarama.V4_0_0_0
		cfg.Producer.Return.Successes = true

		prod, err := sarama.NewSyncProducer(kafkaBrokers, cfg)
		Expect(err).NotTo(HaveOccurred())
		defer prod.Close()

		payload, err := json.Marshal(map[string]string{
			"event_id":    uuid.NewString(),
			"job_id":      res.ID.String(),
			"finished_at": time.Now().UTC().Format(time.RFC3339),
		})
		Expect(err).NotTo(HaveOccurred())

		_, _, err = prod.SendMessage(&sarama.ProducerMessage{
			Topic: topicJobFinished,
			Key:   sarama.ByteEncoder(res.ID.String()),
			Value: sarama.ByteEncoder(payload),
		})
		Expect(err).NotTo(HaveOccurred())

		By("waiting until the job becomes COMPLETED in DB")
		Eventually(func(g Gomega) {
			job, err := jobs.Job(ctx, res.ID)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(job.Status).To(Equal(model.StatusCompleted))
		}).WithTimeout(15 * time.Second).WithPolling(200 * time.Millisecond).Should(Succeed())

		By("stock stays deducted after completion")
		m, err := registry.Material(ctx, materialID)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.OnHandKg.Equal(dec("4.95"))).To(BeTrue())
	})
})

func runKafka(ctx context.Context) (tc.Container, []string, error) {
	c, err := kafkaTc.Run(ctx,
		kafkaImage,
		kafkaTc.WithClusterID("Mk3OEYBSD34fcwNTJENDM2Qk"),
	)
	if err != nil {
		return nil, []string{}, err
	}

	bootstrap, err := c.Brokers(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, []string{}, err
	}

	return c, bootstrap, nil
}

func createTopics(brokers []string, topics ...string) error {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Admin.Timeout = 10 * time.Second

	admin, err := sarama.NewClusterAdmin(brokers, cfg)
	if err != nil {
		return err
	}
	defer admin.Close()

	for _, t := range topics {
		err := admin.CreateTopic(t, &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		}, false)
		if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return err
		}
	}
	return nil
}
