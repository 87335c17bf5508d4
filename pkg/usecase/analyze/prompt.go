package analyze

import "fmt"

const systemPrompt = `You are an HR invoice reimbursement assistant. ` +
	`Based on the company reimbursement policy provided, evaluate whether the employee invoice can be: ` +
	`Fully Reimbursed, Partially Reimbursed, or Declined. ` +
	`Provide a detailed reason and explain your reasoning strictly as per policy.`

const responseFormat = `Provide your response as:
Status: <Fully Reimbursed / Partially Reimbursed / Declined>
Reason: <detailed reason>
Name: <name from invoice>
Date: <date from invoice>`

// buildEvaluationPrompt embeds the policy and invoice text verbatim together
// with the fixed four-line response format instruction.
func buildEvaluationPrompt(policyText, invoiceText string) string {
	return fmt.Sprintf("**Policy:**\n%s\n\n**Invoice:**\n%s\n\n%s", policyText, invoiceText, responseFormat)
}

// renderContent synthesizes the text blob persisted to the semantic store:
// the original invoice text followed by a readable summary of the verdict.
// Similarity search indexes against this blob, not the invoice text alone.
func renderContent(invoiceText, status, reason string) string {
	return fmt.Sprintf("Invoice:\n%s\n\nAnalysis:\nStatus: %s\nReason: %s", invoiceText, status, reason)
}
