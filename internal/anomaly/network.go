package anomaly

import (
	"sort"

	"github.com/savegress/caselens/pkg/models"
)

// buildNetwork aggregates the case transaction graph: one node per
// account carrying its risk score, one edge per distinct (from, to)
// pair with total amount and transaction count. Account numbers seen
// only in transactions become placeholder nodes so no edge dangles.
func (d *Detector) buildNetwork(accounts []models.Account, transactions []models.Transaction, riskScores map[string]int) models.Network {
	known := make(map[string]models.Account, len(accounts))
	for _, acc := range accounts {
		known[acc.AccountNumber] = acc
	}

	nodeSet := make(map[string]bool)
	for _, acc := range accounts {
		nodeSet[acc.AccountNumber] = true
	}

	type pair struct{ from, to string }
	edgeAgg := make(map[pair]*models.NetworkEdge)
	for _, txn := range transactions {
		nodeSet[txn.FromAccount] = true
		nodeSet[txn.ToAccount] = true

		key := pair{txn.FromAccount, txn.ToAccount}
		edge, ok := edgeAgg[key]
		if !ok {
			edge = &models.NetworkEdge{From: txn.FromAccount, To: txn.ToAccount}
			edgeAgg[key] = edge
		}
		edge.TotalAmount = edge.TotalAmount.Add(txn.Amount)
		edge.TransactionCount++
	}

	nodes := make([]models.NetworkNode, 0, len(nodeSet))
	for account := range nodeSet {
		node := models.NetworkNode{Account: account}
		if acc, ok := known[account]; ok {
			node.AccountHolder = acc.AccountHolder
			node.RiskScore = riskScores[account]
		} else {
			node.Placeholder = true
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Account < nodes[j].Account })

	edges := make([]models.NetworkEdge, 0, len(edgeAgg))
	for _, edge := range edgeAgg {
		edges = append(edges, *edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return models.Network{Nodes: nodes, Edges: edges}
}
