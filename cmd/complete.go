package cmd

import (
	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/docs"
	"github.com/etnz/stockfolio/render"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the commands and flags for shell completion.
func Completion() *complete.Command {
	formats := predict.Set(append([]string{"term"}, render.Formats...))
	topics, _ := docs.GetAllTopics()
	topics = append(topics, "readme", "*")
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"value": {
				Flags: map[string]complete.Predictor{
					"f":             predict.Files("*.toml"),
					"format":        formats,
					"provider":      predict.Set(config.Providers),
					"eodhd-api-key": predict.Something,
					"j":             predict.Something,
					"refresh":       predict.Nothing,
					"v":             predict.Nothing,
				},
			},
			"search": {
				Flags: map[string]complete.Predictor{
					"eodhd-api-key": predict.Something,
					"cache-dir":     predict.Dirs("*"),
					"all":           predict.Nothing,
				},
				Args: predict.Something,
			},
			"topic": {
				Flags: map[string]complete.Predictor{
					"list": predict.Nothing,
					"raw":  predict.Nothing,
				},
				Args: predict.Set(topics),
			},
			"help":     {Args: predict.Set{"value", "search", "topic"}},
			"flags":    {},
			"commands": {},
		},
	}
}
