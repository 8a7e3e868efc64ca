// Package chat runs the assistant conversation: a language model that may
// call a fixed set of directory and ledger tools before answering.
package chat

import (
	"fmt"
	"strings"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
)

type ToolName string

const (
	ToolGetMemberList                     ToolName = "getMemberList"
	ToolGetMemberTransactionHistory       ToolName = "getMemberTransactionHistory"
	ToolPrepareMemberPdfDownload          ToolName = "prepareMemberPdfDownload"
	ToolPrepareFinancialStatementDownload ToolName = "prepareFinancialStatementDownload"
)

const argMemberName = "memberName"

// ToolCall is a validated invocation. MemberName is set only for the tools
// that take it.
type ToolCall struct {
	Name       ToolName
	MemberName string
}

// ParseToolCall checks the tool name and its arguments as sent by the model.
func ParseToolCall(name string, args map[string]any) (ToolCall, error) {
	call := ToolCall{Name: ToolName(name)}
	switch call.Name {
	case ToolGetMemberList, ToolPrepareFinancialStatementDownload:
		return call, nil
	case ToolGetMemberTransactionHistory, ToolPrepareMemberPdfDownload:
		raw, ok := args[argMemberName]
		if !ok {
			return call, fmt.Errorf("missing argument %s", argMemberName)
		}
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return call, fmt.Errorf("argument %s must be a non-empty string", argMemberName)
		}
		call.MemberName = strings.TrimSpace(s)
		return call, nil
	}
	return call, fmt.Errorf("unknown tool %q", name)
}

type MemberListResult struct {
	Members []string `json:"members"`
}

type HistoryResult struct {
	History []ledger.HistoryEntry `json:"history,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type MemberPDFResult struct {
	Success    bool   `json:"success"`
	MemberName string `json:"memberName"`
	Error      string `json:"error,omitempty"`
}

type StatementPDFResult struct {
	Success bool `json:"success"`
}

// ToolResult holds exactly one populated field, selected by Name.
type ToolResult struct {
	Name         ToolName
	MemberList   *MemberListResult
	History      *HistoryResult
	MemberPDF    *MemberPDFResult
	StatementPDF *StatementPDFResult
	// Error is set when the call could not be parsed or is not permitted.
	Error string
}

// Payload renders the result as the JSON-like object returned to the model.
func (r ToolResult) Payload() map[string]any {
	if r.Error != "" {
		return map[string]any{"error": r.Error}
	}
	switch r.Name {
	case ToolGetMemberList:
		return map[string]any{"members": r.MemberList.Members}
	case ToolGetMemberTransactionHistory:
		if r.History.Error != "" {
			return map[string]any{"error": r.History.Error}
		}
		history := make([]map[string]any, 0, len(r.History.History))
		for _, h := range r.History.History {
			history = append(history, map[string]any{
				"date":        h.Date.Format("2006-01-02"),
				"description": h.Description,
				"amount":      h.Amount.StringFixed(2),
			})
		}
		return map[string]any{"history": history}
	case ToolPrepareMemberPdfDownload:
		p := map[string]any{"success": r.MemberPDF.Success, "memberName": r.MemberPDF.MemberName}
		if r.MemberPDF.Error != "" {
			p["error"] = r.MemberPDF.Error
		}
		return p
	case ToolPrepareFinancialStatementDownload:
		return map[string]any{"success": r.StatementPDF.Success}
	}
	return map[string]any{"error": "unsupported tool"}
}

const (
	ActionDownloadMemberPDF    = "download_member_pdf"
	ActionDownloadStatementPDF = "download_statement_pdf"
)

// Action tells the client to open a document the user asked for.
type Action struct {
	Type     string `json:"type"`
	MemberID string `json:"member_id,omitempty"`
	Member   string `json:"member_name,omitempty"`
}

// Access is what a caller may look up through the tools. The zero value is
// an anonymous visitor, who gets none of the directory or ledger tools.
type Access struct {
	Members      bool
	Transactions bool
}

var FullAccess = Access{Members: true, Transactions: true}

const notPermitted = "This information is only available to signed-in administrators."

func (a Access) allows(name ToolName) bool {
	switch name {
	case ToolGetMemberList, ToolPrepareMemberPdfDownload:
		return a.Members
	case ToolGetMemberTransactionHistory, ToolPrepareFinancialStatementDownload:
		return a.Transactions
	}
	return true
}

// Directory is the read-only view of members and ledger the tools query.
type Directory interface {
	Members() []domain.Member
	Transactions() []domain.Transaction
}

type Toolbox struct {
	dir Directory
}

func NewToolbox(dir Directory) *Toolbox {
	return &Toolbox{dir: dir}
}

// Execute runs one call on behalf of a caller with the given access. Lookup
// misses and refusals land in the result's error field.
func (t *Toolbox) Execute(call ToolCall, access Access) (ToolResult, *Action) {
	res := ToolResult{Name: call.Name}
	if !access.allows(call.Name) {
		res.Error = notPermitted
		return res, nil
	}
	switch call.Name {
	case ToolGetMemberList:
		members := t.dir.Members()
		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Name)
		}
		res.MemberList = &MemberListResult{Members: names}
		return res, nil

	case ToolGetMemberTransactionHistory:
		if _, ok := t.findMember(call.MemberName); !ok {
			res.History = &HistoryResult{Error: notFound(call.MemberName)}
			return res, nil
		}
		res.History = &HistoryResult{History: ledger.HistoryFor(t.dir.Transactions(), call.MemberName)}
		return res, nil

	case ToolPrepareMemberPdfDownload:
		m, ok := t.findMember(call.MemberName)
		if !ok {
			res.MemberPDF = &MemberPDFResult{MemberName: call.MemberName, Error: notFound(call.MemberName)}
			return res, nil
		}
		res.MemberPDF = &MemberPDFResult{Success: true, MemberName: m.Name}
		return res, &Action{Type: ActionDownloadMemberPDF, MemberID: m.ID, Member: m.Name}

	case ToolPrepareFinancialStatementDownload:
		res.StatementPDF = &StatementPDFResult{Success: true}
		return res, &Action{Type: ActionDownloadStatementPDF}
	}
	res.Error = fmt.Sprintf("unknown tool %q", call.Name)
	return res, nil
}

// findMember returns the first member whose name matches case-insensitively.
func (t *Toolbox) findMember(name string) (domain.Member, bool) {
	for _, m := range t.dir.Members() {
		if strings.EqualFold(strings.TrimSpace(m.Name), name) {
			return m, true
		}
	}
	return domain.Member{}, false
}

func notFound(name string) string {
	return fmt.Sprintf("Member '%s' not found", name)
}
