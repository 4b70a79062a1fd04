// internal/eval/dataset.go
package eval

// Case is one evaluation example: a user input and the substring or fact
// the answer is expected to contain.
type Case struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// BuiltinDataset covers the assistant's three intents plus a general prompt.
func BuiltinDataset() []Case {
	return []Case{
		{Input: "What is the checked baggage allowance?", Expected: "23kg"},
		{Input: "How long do refunds take to process?", Expected: "7 business days"},
		{Input: "I want to book a flight from JFK to LHR on 2026-09-10", Expected: "JFK"},
		{Input: "My suitcase was lost on my last flight", Expected: "case number"},
		{Input: "Do I need a visa to travel to the UK?", Expected: "visa"},
		{Input: "Hello, what can you help me with?", Expected: "help"},
	}
}
