package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/sfaf-etl/internal/adapter/export"
	kafkaadapter "github.com/couchcryptid/sfaf-etl/internal/adapter/kafka"
	"github.com/couchcryptid/sfaf-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/sfaf-etl/internal/adapter/sfaffile"
	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/pipeline"
	"github.com/couchcryptid/sfaf-etl/internal/report"
)

// conversion is one input file wired to its output sinks.
type conversion struct {
	reader    *sfaffile.Reader
	sinks     *export.Fanout
	collector *report.Collector
	pipeline  *pipeline.Pipeline
}

// newConversion opens the input and every configured output. extra sinks
// receive the accepted records alongside the files.
func (a *app) newConversion(input string, extra ...export.Sink) (*conversion, error) {
	reader, err := sfaffile.Open(input, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}

	sinks, err := a.openSinks()
	if err != nil {
		return nil, errors.Join(err, reader.Close())
	}
	collector := report.NewCollector()
	sinks = append(sinks, collector)
	sinks = append(sinks, extra...)
	fan := export.NewFanout(sinks...)

	transformer := pipeline.NewTransformer(a.correlation(), a.geocoder(), a.logger)
	return &conversion{
		reader:    reader,
		sinks:     fan,
		collector: collector,
		pipeline:  pipeline.New(reader, transformer, fan, a.logger, a.metrics, a.cfg.BatchSize),
	}, nil
}

// run converts the whole input, then flushes and closes every output. A
// flush failure is returned even when the run itself succeeded.
func (c *conversion) run(ctx context.Context) (pipeline.Report, error) {
	rep, runErr := c.pipeline.Run(ctx)
	closeErr := c.sinks.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("flush outputs: %w", closeErr)
	}
	return rep, errors.Join(runErr, closeErr, c.reader.Close())
}

func (a *app) openSinks() ([]export.Sink, error) {
	var sinks []export.Sink
	fail := func(err error) ([]export.Sink, error) {
		return nil, errors.Join(err, export.NewFanout(sinks...).Close())
	}

	jsonFile, err := export.NewJSONFile(a.cfg.JSONOutput)
	if err != nil {
		return fail(err)
	}
	sinks = append(sinks, jsonFile)

	csvFile, err := export.NewCSVFile(a.cfg.CSVOutput, a.cfg.CSVHeader)
	if err != nil {
		return fail(err)
	}
	sinks = append(sinks, csvFile)

	if a.cfg.XLSXOutput != "" {
		wb, err := export.NewWorkbook(a.cfg.XLSXOutput)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, wb)
	}

	if a.cfg.KafkaEnabled {
		sinks = append(sinks, kafkaadapter.NewWriter(a.cfg, a.logger, a.metrics))
		a.logger.Info("kafka sink enabled", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaSinkTopic)
	}
	return sinks, nil
}

func (a *app) correlation() domain.Correlation {
	if a.cfg.Correlation == "indexed" {
		return domain.IndexedCorrelation{}
	}
	return domain.PositionalCorrelation{}
}

// geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
func (a *app) geocoder() domain.Geocoder {
	if !a.cfg.MapboxEnabled {
		a.metrics.GeocodeEnabled.Set(0)
		a.logger.Debug("mapbox geocoding disabled")
		return nil
	}
	client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, a.cfg.MapboxRateLimit, a.logger, a.metrics)
	a.metrics.GeocodeEnabled.Set(1)
	a.logger.Info("mapbox geocoding enabled",
		"cache_size", a.cfg.MapboxCacheSize,
		"timeout", a.cfg.MapboxTimeout,
		"rate_limit", a.cfg.MapboxRateLimit,
	)
	return mapbox.NewCachedGeocoder(client, a.cfg.MapboxCacheSize, a.metrics)
}
