// Package render turns a decided campaign into its deliverable forms: a
// personalized message, an HTML document, a structured payload, and
// simulated performance metrics.
//
// Rendering is stateless. The only nondeterminism is metric simulation,
// which draws from an injected random.Source.
package render
