// Copyright 2024 The slotcast Authors
// This file is part of the slotcast library.
//
// The slotcast library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slotcast library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slotcast library. If not, see <http://www.gnu.org/licenses/>.

// Package filters compiles subscribe requests into Filter objects applied by
// subscriber sessions. Compilation validates every criterion against the
// configured limits; application is lock-free, the session owns its filter.
package filters

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/slotcast/slotcast/config"
	"github.com/slotcast/slotcast/geyserpb"
	"github.com/slotcast/slotcast/stream"
)

// Filter is a compiled subscribe request. The zero request compiles to a
// filter that matches nothing at processed commitment.
type Filter struct {
	accounts     map[string]*accountCriteria
	slots        []string
	transactions map[string]*transactionCriteria
	blocks       []string
	blocksMeta   []string
	commitment   stream.CommitmentLevel
	dataSlices   []*geyserpb.SubscribeRequestAccountsDataSlice
}

type accountCriteria struct {
	account mapset.Set[string]
	owner   mapset.Set[string]
}

type transactionCriteria struct {
	vote           *bool
	failed         *bool
	signature      *string
	accountInclude mapset.Set[string]
	accountExclude mapset.Set[string]
}

// New compiles req under the configured limits.
func New(req *geyserpb.SubscribeRequest, limits *config.FilterLimits) (*Filter, error) {
	f := &Filter{
		accounts:     make(map[string]*accountCriteria, len(req.Accounts)),
		transactions: make(map[string]*transactionCriteria, len(req.Transactions)),
		commitment:   stream.CommitmentProcessed,
	}

	if req.Commitment != nil {
		commitment := geyserpb.CommitmentToStream(*req.Commitment)
		if !commitment.IsValid() {
			return nil, fmt.Errorf("invalid commitment level %d", int32(*req.Commitment))
		}
		f.commitment = commitment
	}

	if err := f.compileAccounts(req.Accounts, &limits.Accounts); err != nil {
		return nil, err
	}
	if err := checkMax("slots", len(req.Slots), limits.Slots.Max); err != nil {
		return nil, err
	}
	for name := range req.Slots {
		f.slots = append(f.slots, name)
	}
	if err := f.compileTransactions(req.Transactions, &limits.Transactions); err != nil {
		return nil, err
	}
	if err := checkMax("blocks", len(req.Blocks), limits.Blocks.Max); err != nil {
		return nil, err
	}
	for name := range req.Blocks {
		f.blocks = append(f.blocks, name)
	}
	if err := checkMax("blocks_meta", len(req.BlocksMeta), limits.BlocksMeta.Max); err != nil {
		return nil, err
	}
	for name := range req.BlocksMeta {
		f.blocksMeta = append(f.blocksMeta, name)
	}

	for _, ds := range req.AccountsDataSlice {
		if ds.Length == 0 {
			return nil, fmt.Errorf("accounts_data_slice: zero length slice")
		}
		f.dataSlices = append(f.dataSlices, ds)
	}
	return f, nil
}

func checkMax(resource string, got, max int) error {
	if max > 0 && got > max {
		return fmt.Errorf("%s filter limit exceeded: %d > %d", resource, got, max)
	}
	return nil
}

func (f *Filter) compileAccounts(in map[string]*geyserpb.SubscribeRequestFilterAccounts, limits *config.AccountsLimits) error {
	if err := checkMax("accounts", len(in), limits.Max); err != nil {
		return err
	}
	rejectAccount := mapset.NewThreadUnsafeSet[string]()
	for _, key := range limits.AccountReject {
		rejectAccount.Add(key)
	}
	rejectOwner := mapset.NewThreadUnsafeSet[string]()
	for _, key := range limits.OwnerReject {
		rejectOwner.Add(key)
	}

	for name, criteria := range in {
		if criteria == nil {
			criteria = &geyserpb.SubscribeRequestFilterAccounts{}
		}
		if limits.RejectAny && len(criteria.Account) == 0 && len(criteria.Owner) == 0 {
			return fmt.Errorf("accounts filter %q: broadcast filters are not allowed", name)
		}
		if err := checkMax("accounts.account", len(criteria.Account), limits.AccountMax); err != nil {
			return err
		}
		if err := checkMax("accounts.owner", len(criteria.Owner), limits.OwnerMax); err != nil {
			return err
		}
		compiled := &accountCriteria{
			account: mapset.NewThreadUnsafeSet[string](),
			owner:   mapset.NewThreadUnsafeSet[string](),
		}
		for _, key := range criteria.Account {
			if _, err := stream.PubkeyFromBase58(key); err != nil {
				return fmt.Errorf("accounts filter %q: %w", name, err)
			}
			if rejectAccount.Contains(key) {
				return fmt.Errorf("accounts filter %q: account %s is not allowed", name, key)
			}
			compiled.account.Add(key)
		}
		for _, key := range criteria.Owner {
			if _, err := stream.PubkeyFromBase58(key); err != nil {
				return fmt.Errorf("accounts filter %q: %w", name, err)
			}
			if rejectOwner.Contains(key) {
				return fmt.Errorf("accounts filter %q: owner %s is not allowed", name, key)
			}
			compiled.owner.Add(key)
		}
		f.accounts[name] = compiled
	}
	return nil
}

func (f *Filter) compileTransactions(in map[string]*geyserpb.SubscribeRequestFilterTransactions, limits *config.TransactionsLimits) error {
	if err := checkMax("transactions", len(in), limits.Max); err != nil {
		return err
	}
	for name, criteria := range in {
		if criteria == nil {
			criteria = &geyserpb.SubscribeRequestFilterTransactions{}
		}
		if limits.RejectAny && criteria.Vote == nil && criteria.Failed == nil && criteria.Signature == nil &&
			len(criteria.AccountInclude) == 0 && len(criteria.AccountExclude) == 0 {
			return fmt.Errorf("transactions filter %q: broadcast filters are not allowed", name)
		}
		if err := checkMax("transactions.account_include", len(criteria.AccountInclude), limits.AccountIncludeMax); err != nil {
			return err
		}
		if err := checkMax("transactions.account_exclude", len(criteria.AccountExclude), limits.AccountExcludeMax); err != nil {
			return err
		}
		compiled := &transactionCriteria{
			vote:           criteria.Vote,
			failed:         criteria.Failed,
			signature:      criteria.Signature,
			accountInclude: mapset.NewThreadUnsafeSet[string](),
			accountExclude: mapset.NewThreadUnsafeSet[string](),
		}
		for _, key := range criteria.AccountInclude {
			if _, err := stream.PubkeyFromBase58(key); err != nil {
				return fmt.Errorf("transactions filter %q: %w", name, err)
			}
			compiled.accountInclude.Add(key)
		}
		for _, key := range criteria.AccountExclude {
			if _, err := stream.PubkeyFromBase58(key); err != nil {
				return fmt.Errorf("transactions filter %q: %w", name, err)
			}
			compiled.accountExclude.Add(key)
		}
		f.transactions[name] = compiled
	}
	return nil
}

// CommitmentLevel returns the commitment stream this filter listens to.
func (f *Filter) CommitmentLevel() stream.CommitmentLevel { return f.commitment }

// Update applies the filter to msg. It returns the rendered update carrying
// the matched filter names, or nil when nothing matches.
func (f *Filter) Update(msg stream.Message) *geyserpb.SubscribeUpdate {
	var matched []string
	switch m := msg.(type) {
	case *stream.MessageSlot:
		matched = f.slots
	case *stream.MessageAccount:
		matched = f.matchAccount(m)
	case *stream.MessageTransaction:
		matched = f.matchTransaction(&m.Transaction)
	case *stream.MessageBlock:
		matched = f.blocks
	case *stream.MessageBlockMeta:
		matched = f.blocksMeta
	}
	if len(matched) == 0 {
		return nil
	}
	return geyserpb.UpdateFromMessage(matched, msg, f.dataSlices)
}

func (f *Filter) matchAccount(m *stream.MessageAccount) []string {
	if len(f.accounts) == 0 {
		return nil
	}
	pubkey := m.Account.Pubkey.String()
	owner := m.Account.Owner.String()
	var matched []string
	for name, criteria := range f.accounts {
		if criteria.account.Cardinality() > 0 && !criteria.account.Contains(pubkey) {
			continue
		}
		if criteria.owner.Cardinality() > 0 && !criteria.owner.Contains(owner) {
			continue
		}
		matched = append(matched, name)
	}
	return matched
}

func (f *Filter) matchTransaction(tx *stream.TransactionInfo) []string {
	if len(f.transactions) == 0 {
		return nil
	}
	signature := tx.Signature.String()
	failed := tx.Meta.Err != nil
	var matched []string
	for name, criteria := range f.transactions {
		if criteria.vote != nil && *criteria.vote != tx.IsVote {
			continue
		}
		if criteria.failed != nil && *criteria.failed != failed {
			continue
		}
		if criteria.signature != nil && *criteria.signature != signature {
			continue
		}
		if !matchKeys(criteria, tx.AccountKeys) {
			continue
		}
		matched = append(matched, name)
	}
	return matched
}

func matchKeys(criteria *transactionCriteria, keys []stream.Pubkey) bool {
	if criteria.accountInclude.Cardinality() > 0 {
		found := false
		for _, key := range keys {
			if criteria.accountInclude.Contains(key.String()) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if criteria.accountExclude.Cardinality() > 0 {
		for _, key := range keys {
			if criteria.accountExclude.Contains(key.String()) {
				return false
			}
		}
	}
	return true
}
