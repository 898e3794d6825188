package app

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jnardiello/printfarmhq-sub002/internal/config"
	"github.com/jnardiello/printfarmhq-sub002/internal/migrator"
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
	materialhttp "github.com/jnardiello/printfarmhq-sub002/internal/transport/http/material/v1"
	printerhttp "github.com/jnardiello/printfarmhq-sub002/internal/transport/http/printer/v1"
	printjobhttp "github.com/jnardiello/printfarmhq-sub002/internal/transport/http/printjob/v1"
	producthttp "github.com/jnardiello/printfarmhq-sub002/internal/transport/http/product/v1"
	"github.com/jnardiello/printfarmhq-sub002/platform/closer"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka/consumer"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka/middleware"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka/producer"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type MaterialRepository interface {
	ledgersvc.MaterialRepository
	registrysvc.MaterialRepository
	productsvc.MaterialRepository
}

type ProductRepository interface {
	productsvc.ProductRepository
	printjobsvc.ProductRepository
}

type PrinterRepository interface {
	printersvc.PrinterRepository
	printjobsvc.PrinterRepository
}

type RegistryService interface {
	materialhttp.RegistryService
}

type LedgerService interface {
	registrysvc.Ledger
	printjobsvc.Ledger
}

type PrintJobService interface {
	printjobhttp.PrintJobService
	jobconsumer.JobCompleter
}

type Handler interface {
	Register(r chi.Router)
}

type di struct {
	dbPool   *pgxpool.Pool
	migrator *migrator.Migrator
	txm      *pg.TxManager

	materialRepo MaterialRepository
	productRepo  ProductRepository
	printerRepo  PrinterRepository
	printJobRepo printjobsvc.JobRepository

	syncProducer     sarama.SyncProducer
	stockLowProducer kafka.Producer
	stockNotifier    *stockproducer.Producer

	consumerGroup       sarama.ConsumerGroup
	jobFinishedConsumer kafka.Consumer
	jobFinishedHandler  *jobconsumer.Handler

	ledgerService   LedgerService
	registryService RegistryService
	productService  producthttp.ProductService
	printerService  printerhttp.PrinterService
	printJobService PrintJobService

	materialHandler Handler
	productHandler  Handler
	printerHandler  Handler
	printJobHandler Handler

	router *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) TxManager(ctx context.Context) *pg.TxManager {
	if d.txm == nil {
		d.txm = pg.NewTxManager(d.DBPool(ctx))
	}

	return d.txm
}

func (d *di) MaterialRepository(ctx context.Context) MaterialRepository {
	if d.materialRepo == nil {
		d.materialRepo = materialrepo.NewMaterialRepository()
	}

	return d.materialRepo
}

func (d *di) ProductRepository(ctx context.Context) ProductRepository {
	if d.productRepo == nil {
		d.productRepo = productrepo.NewProductRepository()
	}

	return d.productRepo
}

func (d *di) PrinterRepository(ctx context.Context) PrinterRepository {
	if d.printerRepo == nil {
		d.printerRepo = printerrepo.NewPrinterRepository()
	}

	return d.printerRepo
}

func (d *di) PrintJobRepository(ctx context.Context) printjobsvc.JobRepository {
	if d.printJobRepo == nil {
		d.printJobRepo = printjobrepo.NewPrintJobRepository()
	}

	return d.printJobRepo
}

func (d *di) SyncProducer(ctx context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) StockLowProducer(ctx context.Context) kafka.Producer {
	if d.stockLowProducer == nil {
		d.stockLowProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.StockLowTopic(),
			logger.L(),
		)
	}

	return d.stockLowProducer
}

func (d *di) StockNotifier(ctx context.Context) *stockproducer.Producer {
	if d.stockNotifier == nil {
		d.stockNotifier = stockproducer.NewProducer(d.StockLowProducer(ctx))
	}

	return d.stockNotifier
}

func (d *di) ConsumerGroup(ctx context.Context) sarama.ConsumerGroup {
	if d.consumerGroup == nil {
		cfg := config.C()

		consumerGroup, err := sarama.NewConsumerGroup(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ConsumerGroupID(),
			cfg.Kafka.ConsumerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create consumer group: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka consumer group", func(ctx context.Context) error {
			return d.consumerGroup.Close()
		})

		d.consumerGroup = consumerGroup
	}

	return d.consumerGroup
}

func (d *di) JobFinishedConsumer(ctx context.Context) kafka.Consumer {
	if d.jobFinishedConsumer == nil {
		d.jobFinishedConsumer = consumer.NewConsumer(
			d.ConsumerGroup(ctx),
			[]string{
				config.C().Kafka.JobFinishedTopic(),
			},
			logger.L(),
			middleware.Logging(logger.L()),
			middleware.Recovery(logger.L()),
		)
	}

	return d.jobFinishedConsumer
}

func (d *di) JobFinishedHandler(ctx context.Context) *jobconsumer.Handler {
	if d.jobFinishedHandler == nil {
		d.jobFinishedHandler = jobconsumer.NewHandler(d.PrintJobService(ctx))
	}

	return d.jobFinishedHandler
}

func (d *di) LedgerService(ctx context.Context) LedgerService {
	if d.ledgerService == nil {
		d.ledgerService = ledgersvc.NewLedgerService(
			d.MaterialRepository(ctx),
			d.TxManager(ctx),
			d.StockNotifier(ctx),
		)
	}

	return d.ledgerService
}

func (d *di) RegistryService(ctx context.Context) RegistryService {
	if d.registryService == nil {
		d.registryService = registrysvc.NewRegistryService(
			d.MaterialRepository(ctx),
			d.LedgerService(ctx),
			d.TxManager(ctx),
		)
	}

	return d.registryService
}

func (d *di) ProductService(ctx context.Context) producthttp.ProductService {
	if d.productService == nil {
		d.productService = productsvc.NewProductService(
			d.ProductRepository(ctx),
			d.MaterialRepository(ctx),
			d.TxManager(ctx),
		)
	}

	return d.productService
}

func (d *di) PrinterService(ctx context.Context) printerhttp.PrinterService {
	if d.printerService == nil {
		d.printerService = printersvc.NewPrinterService(
			d.PrinterRepository(ctx),
			d.TxManager(ctx),
		)
	}

	return d.printerService
}

func (d *di) PrintJobService(ctx context.Context) PrintJobService {
	if d.printJobService == nil {
		d.printJobService = printjobsvc.NewPrintJobService(
			d.PrintJobRepository(ctx),
			d.ProductRepository(ctx),
			d.PrinterRepository(ctx),
			d.MaterialRepository(ctx),
			d.LedgerService(ctx),
			d.TxManager(ctx),
			d.StockNotifier(ctx),
		)
	}

	return d.printJobService
}

func (d *di) MaterialHandler(ctx context.Context) Handler {
	if d.materialHandler == nil {
		d.materialHandler = materialhttp.NewMaterialHandler(d.RegistryService(ctx))
	}

	return d.materialHandler
}

func (d *di) ProductHandler(ctx context.Context) Handler {
	if d.productHandler == nil {
		d.productHandler = producthttp.NewProductHandler(d.ProductService(ctx))
	}

	return d.productHandler
}

func (d *di) PrinterHandler(ctx context.Context) Handler {
	if d.printerHandler == nil {
		d.printerHandler = printerhttp.NewPrinterHandler(d.PrinterService(ctx))
	}

	return d.printerHandler
}

func (d *di) PrintJobHandler(ctx context.Context) Handler {
	if d.printJobHandler == nil {
		d.printJobHandler = printjobhttp.NewPrintJobHandler(d.PrintJobService(ctx))
	}

	return d.printJobHandler
}

func (d *di) Router(ctx context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}
