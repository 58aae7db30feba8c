package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type balanceKey struct {
	productID  int64
	locationID int64
}

type memoryState struct {
	products   map[int64]Product
	locations  map[int64]Location
	balances   map[balanceKey]int64
	operations map[int64]Operation
	lines      map[int64][]OperationLine
	nextOpID   int64
	nextLineID int64
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		products:   make(map[int64]Product, len(s.products)),
		locations:  make(map[int64]Location, len(s.locations)),
		balances:   make(map[balanceKey]int64, len(s.balances)),
		operations: make(map[int64]Operation, len(s.operations)),
		lines:      make(map[int64][]OperationLine, len(s.lines)),
		nextOpID:   s.nextOpID,
		nextLineID: s.nextLineID,
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.locations {
		out.locations[k] = v
	}
	for k, v := range s.balances {
		out.balances[k] = v
	}
	for k, v := range s.operations {
		out.operations[k] = v
	}
	for k, v := range s.lines {
		out.lines[k] = append([]OperationLine(nil), v...)
	}
	return out
}

// memoryRepo emulates the PostgreSQL repository. WithTx runs against a
// snapshot that only replaces the shared state on success, and a mutex
// serialises transactions the way row locks do.
type memoryRepo struct {
	mu    sync.Mutex
	state *memoryState

	failOn string
}

type memoryTx struct {
	state  *memoryState
	failOn string
}

var errInjected = errors.New("injected failure")

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memoryState{
		products:   make(map[int64]Product),
		locations:  make(map[int64]Location),
		balances:   make(map[balanceKey]int64),
		operations: make(map[int64]Operation),
		lines:      make(map[int64][]OperationLine),
	}}
}

func (r *memoryRepo) addProduct(p Product) {
	r.state.products[p.ID] = p
}

func (r *memoryRepo) addLocation(l Location) {
	r.state.locations[l.ID] = l
}

func (r *memoryRepo) setBalance(productID, locationID, qty int64) {
	r.state.balances[balanceKey{productID, locationID}] = qty
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{state: r.state.clone(), failOn: r.failOn}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.state = tx.state
	return nil
}

func (r *memoryRepo) GetBalance(ctx context.Context, productID, locationID int64) (Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qty := r.state.balances[balanceKey{productID, locationID}]
	return Balance{ProductID: productID, LocationID: locationID, Qty: qty}, nil
}

func (r *memoryRepo) ListProductIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id := range r.state.products {
		ids = append(ids, id)
	}
	return ids, nil
}

func (tx *memoryTx) GetProductByID(ctx context.Context, id int64) (Product, error) {
	p, ok := tx.state.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (tx *memoryTx) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	for _, p := range tx.state.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (tx *memoryTx) GetLocation(ctx context.Context, id int64) (Location, error) {
	l, ok := tx.state.locations[id]
	if !ok {
		return Location{}, ErrLocationNotFound
	}
	return l, nil
}

func (tx *memoryTx) InsertOperation(ctx context.Context, op Operation) (int64, error) {
	tx.state.nextOpID++
	op.ID = tx.state.nextOpID
	tx.state.operations[op.ID] = op
	return op.ID, nil
}

func (tx *memoryTx) InsertOperationLine(ctx context.Context, line OperationLine) (int64, error) {
	tx.state.nextLineID++
	line.ID = tx.state.nextLineID
	tx.state.lines[line.OperationID] = append(tx.state.lines[line.OperationID], line)
	return line.ID, nil
}

func (tx *memoryTx) GetBalanceForUpdate(ctx context.Context, productID, locationID int64) (Balance, error) {
	key := balanceKey{productID, locationID}
	qty, ok := tx.state.balances[key]
	if !ok {
		return Balance{ProductID: productID, LocationID: locationID}, ErrBalanceNotFound
	}
	return Balance{ProductID: productID, LocationID: locationID, Qty: qty}, nil
}

func (tx *memoryTx) UpsertBalance(ctx context.Context, balance Balance) error {
	if tx.failOn == "UpsertBalance" {
		return errInjected
	}
	tx.state.balances[balanceKey{balance.ProductID, balance.LocationID}] = balance.Qty
	return nil
}

func (tx *memoryTx) RecomputeOnHand(ctx context.Context, productID int64) (int64, error) {
	if tx.failOn == "RecomputeOnHand" {
		return 0, errInjected
	}
	p, ok := tx.state.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	var total int64
	for key, qty := range tx.state.balances {
		if key.productID != productID {
			continue
		}
		if loc, ok := tx.state.locations[key.locationID]; ok && !loc.Type.Virtual() {
			total += qty
		}
	}
	p.OnHand = total
	tx.state.products[productID] = p
	return total, nil
}

func (tx *memoryTx) GetOperationForUpdate(ctx context.Context, id int64) (Operation, error) {
	op, ok := tx.state.operations[id]
	if !ok {
		return Operation{}, ErrOperationNotFound
	}
	return op, nil
}

func (tx *memoryTx) GetOperationLines(ctx context.Context, operationID int64) ([]OperationLine, error) {
	return append([]OperationLine(nil), tx.state.lines[operationID]...), nil
}

func (tx *memoryTx) SetOperationStatus(ctx context.Context, id int64, status OperationStatus) error {
	op, ok := tx.state.operations[id]
	if !ok {
		return ErrOperationNotFound
	}
	op.Status = status
	tx.state.operations[id] = op
	return nil
}

func (tx *memoryTx) MarkLinesDone(ctx context.Context, operationID int64) error {
	lines := tx.state.lines[operationID]
	for i := range lines {
		lines[i].DoneQty = lines[i].DemandQty
	}
	tx.state.lines[operationID] = lines
	return nil
}

func (tx *memoryTx) UpdateOperationHeader(ctx context.Context, op Operation) error {
	stored, ok := tx.state.operations[op.ID]
	if !ok {
		return ErrOperationNotFound
	}
	stored.ScheduledDate = op.ScheduledDate
	stored.SourceLocationID = op.SourceLocationID
	stored.DestinationLocationID = op.DestinationLocationID
	stored.ContactID = op.ContactID
	stored.Notes = op.Notes
	tx.state.operations[op.ID] = stored
	return nil
}

func (tx *memoryTx) DeleteOperationLines(ctx context.Context, operationID int64) error {
	delete(tx.state.lines, operationID)
	return nil
}

func (tx *memoryTx) DeleteOperation(ctx context.Context, id int64) error {
	if _, ok := tx.state.operations[id]; !ok {
		return ErrOperationNotFound
	}
	delete(tx.state.operations, id)
	delete(tx.state.lines, id)
	return nil
}

func ptr(v int64) *int64 { return &v }

func newFixtureRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.addProduct(Product{ID: 1, SKU: "DESK-001", Name: "Standing Desk"})
	repo.addLocation(Location{ID: 10, Name: "WH/Stock", Type: LocationTypeInternal})
	repo.addLocation(Location{ID: 11, Name: "WH/Stock-2", Type: LocationTypeInternal})
	repo.addLocation(Location{ID: 20, Name: "Vendors", Type: LocationTypeVendor})
	repo.addLocation(Location{ID: 21, Name: "Customers", Type: LocationTypeCustomer})
	return repo
}

func TestReceiptIntoEmptyLocation(t *testing.T) {
	repo := newFixtureRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	op, err := svc.ExecuteMovement(ctx, MovementInput{
		ProductID:             1,
		Quantity:              100,
		Type:                  OperationTypeReceipt,
		SourceLocationID:      ptr(20),
		DestinationLocationID: ptr(10),
	})
	require.NoError(t, err)
	require.Equal(t, StatusDone, op.Status)
	require.Len(t, op.Lines, 1)
	require.Equal(t, int64(100), op.Lines[0].DemandQty)
	require.Equal(t, int64(100), op.Lines[0].DoneQty)
	require.Contains(t, op.Ref, "WH/IN/")

	bal, err := svc.GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(100), bal.Qty)
	require.Equal(t, int64(100), repo.state.products[1].OnHand)
}

func TestDeliveryToCustomerAllowsVirtualNegative(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 100)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.ExecuteMovement(ctx, MovementInput{
		ProductID:             1,
		Quantity:              30,
		Type:                  OperationTypeDelivery,
		SourceLocationID:      ptr(10),
		DestinationLocationID: ptr(21),
	})
	require.NoError(t, err)

	bal, err := svc.GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(70), bal.Qty)

	customer, err := svc.GetBalance(ctx, 1, 21)
	require.NoError(t, err)
	require.Equal(t, int64(-30), customer.Qty)
	require.Equal(t, int64(70), repo.state.products[1].OnHand)
}

func TestDeliveryInsufficientStockRollsBack(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 70)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.ExecuteMovement(ctx, MovementInput{
		ProductID:             1,
		Quantity:              150,
		Type:                  OperationTypeDelivery,
		SourceLocationID:      ptr(10),
		DestinationLocationID: ptr(21),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var detail *InsufficientStockError
	require.ErrorAs(t, err, &detail)
	require.Equal(t, int64(10), detail.LocationID)
	require.Equal(t, int64(70), detail.Available)
	require.Equal(t, int64(150), detail.Requested)

	bal, err := svc.GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(70), bal.Qty)
	require.Empty(t, repo.state.operations)

	customer, err := svc.GetBalance(ctx, 1, 21)
	require.NoError(t, err)
	require.Equal(t, int64(0), customer.Qty)
}

func TestInternalTransferKeepsOnHand(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 70)
	repo.state.products[1] = Product{ID: 1, SKU: "DESK-001", Name: "Standing Desk", OnHand: 70}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.ExecuteMovement(ctx, MovementInput{
		ProductID:             1,
		Quantity:              20,
		Type:                  OperationTypeInternal,
		SourceLocationID:      ptr(10),
		DestinationLocationID: ptr(11),
	})
	require.NoError(t, err)

	src, _ := svc.GetBalance(ctx, 1, 10)
	dst, _ := svc.GetBalance(ctx, 1, 11)
	require.Equal(t, int64(50), src.Qty)
	require.Equal(t, int64(20), dst.Qty)
	require.Equal(t, int64(70), repo.state.products[1].OnHand)
}

func TestMovementBySKU(t *testing.T) {
	repo := newFixtureRepo()
	svc := NewService(repo, nil)

	op, err := svc.ExecuteMovement(context.Background(), MovementInput{
		SKU:                   "DESK-001",
		Quantity:              5,
		Type:                  OperationTypeReceipt,
		DestinationLocationID: ptr(10),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), op.Lines[0].ProductID)
}

func TestMovementValidation(t *testing.T) {
	repo := newFixtureRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.ExecuteMovement(ctx, MovementInput{ProductID: 1, Quantity: 0, Type: OperationTypeReceipt, DestinationLocationID: ptr(10)})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ExecuteMovement(ctx, MovementInput{ProductID: 1, Quantity: -5, Type: OperationTypeReceipt, DestinationLocationID: ptr(10)})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ExecuteMovement(ctx, MovementInput{ProductID: 1, Quantity: 5, Type: OperationTypeReceipt})
	require.Error(t, err)

	_, err = svc.ExecuteMovement(ctx, MovementInput{ProductID: 99, Quantity: 5, Type: OperationTypeReceipt, DestinationLocationID: ptr(10)})
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.ExecuteMovement(ctx, MovementInput{ProductID: 1, Quantity: 5, Type: OperationTypeReceipt, DestinationLocationID: ptr(99)})
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestMovementAtomicityOnInjectedFailure(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 40)
	repo.failOn = "RecomputeOnHand"
	svc := NewService(repo, nil)

	_, err := svc.ExecuteMovement(context.Background(), MovementInput{
		ProductID:             1,
		Quantity:              10,
		Type:                  OperationTypeReceipt,
		SourceLocationID:      ptr(20),
		DestinationLocationID: ptr(10),
	})
	require.ErrorIs(t, err, errInjected)

	bal, _ := svc.GetBalance(context.Background(), 1, 10)
	require.Equal(t, int64(40), bal.Qty)
	vendor, _ := svc.GetBalance(context.Background(), 1, 20)
	require.Equal(t, int64(0), vendor.Qty)
	require.Empty(t, repo.state.operations)
	require.Equal(t, int64(0), repo.state.products[1].OnHand)
}

func TestConcurrentDeliveriesNeverOversell(t *testing.T) {
	const n = 8
	repo := newFixtureRepo()
	repo.setBalance(1, 10, n-1)
	svc := NewService(repo, nil)

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteMovement(context.Background(), MovementInput{
				ProductID:             1,
				Quantity:              1,
				Type:                  OperationTypeDelivery,
				SourceLocationID:      ptr(10),
				DestinationLocationID: ptr(21),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInsufficientStock)
			failed++
		}
	}
	require.Equal(t, n-1, succeeded)
	require.Equal(t, 1, failed)

	bal, _ := svc.GetBalance(context.Background(), 1, 10)
	require.Equal(t, int64(0), bal.Qty)
}

func TestGetBalanceIdempotentRead(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 42)
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	second, err := svc.GetBalance(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, first.Qty, second.Qty)

	missing, err := svc.GetBalance(ctx, 1, 11)
	require.NoError(t, err)
	require.Equal(t, int64(0), missing.Qty)
}

func TestStagedWorkflow(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 50)
	svc := NewService(repo, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, DraftInput{
		Type:                  OperationTypeDelivery,
		SourceLocationID:      ptr(10),
		DestinationLocationID: ptr(21),
		Lines:                 []DraftLine{{ProductID: 1, Quantity: 30}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, draft.Status)

	// No balance effect while staged.
	bal, _ := svc.GetBalance(ctx, 1, 10)
	require.Equal(t, int64(50), bal.Qty)

	_, err = svc.CompleteOperation(ctx, draft.ID, 0)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.TransitionOperation(ctx, draft.ID, StatusWaiting, 0)
	require.NoError(t, err)
	_, err = svc.TransitionOperation(ctx, draft.ID, StatusReady, 0)
	require.NoError(t, err)

	op, err := svc.TransitionOperation(ctx, draft.ID, StatusDone, 0)
	require.NoError(t, err)
	require.Equal(t, StatusDone, op.Status)
	require.Equal(t, int64(30), op.Lines[0].DoneQty)

	bal, _ = svc.GetBalance(ctx, 1, 10)
	require.Equal(t, int64(20), bal.Qty)
	require.Equal(t, int64(20), repo.state.products[1].OnHand)

	// Terminal states reject further transitions.
	_, err = svc.TransitionOperation(ctx, draft.ID, StatusCancelled, 0)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCompleteOperationInsufficientStockKeepsReady(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 5)
	svc := NewService(repo, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, DraftInput{
		Type:                  OperationTypeDelivery,
		SourceLocationID:      ptr(10),
		DestinationLocationID: ptr(21),
		Lines:                 []DraftLine{{ProductID: 1, Quantity: 10}},
	})
	require.NoError(t, err)

	_, err = svc.TransitionOperation(ctx, draft.ID, StatusWaiting, 0)
	require.NoError(t, err)
	_, err = svc.TransitionOperation(ctx, draft.ID, StatusReady, 0)
	require.NoError(t, err)

	_, err = svc.CompleteOperation(ctx, draft.ID, 0)
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, StatusReady, repo.state.operations[draft.ID].Status)
	bal, _ := svc.GetBalance(ctx, 1, 10)
	require.Equal(t, int64(5), bal.Qty)
}

func TestDeleteDraftOnly(t *testing.T) {
	repo := newFixtureRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, DraftInput{
		Type:                  OperationTypeReceipt,
		DestinationLocationID: ptr(10),
		Lines:                 []DraftLine{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOperation(ctx, draft.ID))
	require.Empty(t, repo.state.operations)

	done, err := svc.ExecuteMovement(ctx, MovementInput{
		ProductID:             1,
		Quantity:              1,
		Type:                  OperationTypeReceipt,
		DestinationLocationID: ptr(10),
	})
	require.NoError(t, err)
	require.ErrorIs(t, svc.DeleteOperation(ctx, done.ID), ErrInvalidStatus)
}

func TestReconcileRepairsDrift(t *testing.T) {
	repo := newFixtureRepo()
	repo.setBalance(1, 10, 30)
	// Cached total out of sync with the balance store.
	repo.state.products[1] = Product{ID: 1, SKU: "DESK-001", Name: "Standing Desk", OnHand: 99}
	svc := NewService(repo, nil)

	drift, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, drift)
	require.Equal(t, int64(30), repo.state.products[1].OnHand)

	drift, err = svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Zero(t, drift)
}
