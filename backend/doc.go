// Package backend defines the side-effecting banking operations the dispute
// engines invoke: filing disputes with the payment network, posting temporary
// credits, checking account status, notifying customers and updating the
// case management system. The Mock implementation simulates these systems
// with configurable latency and success rates.
package backend
