// Package tokens estimates token counts for tasks that arrive without them.
//
// Estimation uses the rule of thumb that about 4 characters make one token
// of English text. No model-specific tokenizer is needed:
//
//	counter := tokens.NewEstimatingCounter()
//	n := counter.Count("Hello, world!") // ~3 tokens
//
// An Estimator turns a task description into an input/output pair, assuming
// the response is a fixed multiple of the prompt (3:1 by default):
//
//	est := tokens.NewEstimator(counter, tokens.DefaultOutputRatio)
//	in, out := est.Estimate(description)
package tokens
