// Command riskmodel fits the risk classifier offline and writes the
// versioned model artifact the analyzer loads at startup. It trains either
// on a labeled CSV table or on a synthesized dataset bootstrapped from the
// rule-based scorer.
package main

import (
	"flag"
	"fmt"
	"os"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/risk"
	"PrivacyScanner/internal/training"
)

func main() {
	var (
		dataPath   = flag.String("data", "", "labeled feature CSV; when empty a synthetic dataset is generated")
		outPath    = flag.String("out", "./models/risk_classifier.json", "model artifact output path")
		writeData  = flag.String("write-data", "", "also write the training dataset to this CSV path")
		synthesize = flag.Int("synthesize", 2000, "synthetic sample count when -data is empty")
		seed       = flag.Int64("seed", 42, "random seed for synthesis, split and fitting")
		trees      = flag.Int("trees", 50, "number of trees")
		depth      = flag.Int("depth", 8, "maximum tree depth")
		holdout    = flag.Float64("holdout", 0.2, "evaluation holdout fraction")
	)
	flag.Parse()

	if err := run(*dataPath, *outPath, *writeData, *synthesize, *seed, *trees, *depth, *holdout); err != nil {
		fmt.Fprintln(os.Stderr, "riskmodel:", err)
		os.Exit(1)
	}
}

func run(dataPath, outPath, writeData string, synthesize int, seed int64, trees, depth int, holdout float64) error {
	var samples []training.Sample
	var err error

	if dataPath != "" {
		samples, err = training.LoadCSV(dataPath)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d samples from %s\n", len(samples), dataPath)
	} else {
		samples = training.Synthesize(synthesize, seed, config.Default().Risk)
		fmt.Printf("synthesized %d samples (seed %d)\n", len(samples), seed)
	}

	if writeData != "" {
		if err := training.WriteCSV(writeData, samples); err != nil {
			return err
		}
		fmt.Printf("dataset written to %s\n", writeData)
	}

	trainSet, testSet := training.Split(samples, holdout, seed)

	cfg := risk.DefaultForestConfig()
	cfg.Trees = trees
	cfg.MaxDepth = depth
	cfg.Seed = seed

	artifact, err := training.Train(trainSet, cfg)
	if err != nil {
		return err
	}

	if len(testSet) > 0 {
		fmt.Println(training.Evaluate(artifact.Forest, testSet))
	}

	if err := risk.SaveArtifact(outPath, artifact); err != nil {
		return err
	}
	fmt.Printf("model artifact written to %s (%d trees)\n", outPath, len(artifact.Forest.Trees))
	return nil
}
