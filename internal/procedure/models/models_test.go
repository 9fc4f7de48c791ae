package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
)

func TestDisplay(t *testing.T) {
	t.Run("observed wins over finalize marker", func(t *testing.T) {
		f := &Flow{Status: StatusObserved, IsToFinalize: true}
		assert.Equal(t, "Observado", AreaDisplay(f).Label)
		assert.Equal(t, "Observado", GlobalDisplay(f).Label)
	})

	t.Run("finalize marker differs by view", func(t *testing.T) {
		f := &Flow{Status: StatusSent, IsToFinalize: true}
		assert.Equal(t, "Finalizado", AreaDisplay(f).Label)
		assert.Equal(t, "Por finalizar", GlobalDisplay(f).Label)
	})

	t.Run("plain statuses", func(t *testing.T) {
		cases := map[Status]string{
			StatusSent:      "Enviado",
			StatusReceived:  "Recepcionado",
			StatusRejected:  "Rechazado",
			StatusFinalized: "Finalizado",
			StatusAnnulled:  "ANNULLED",
		}
		for status, label := range cases {
			assert.Equal(t, label, GlobalDisplay(&Flow{Status: status}).Label, status)
		}
		assert.Equal(t, "-", GlobalDisplay(&Flow{}).Label)
	})
}

func TestInboxFilter(t *testing.T) {
	const me id.AreaID = 5
	const other id.AreaID = 6

	t.Run("pending requires active normal sent to me", func(t *testing.T) {
		f := InboxPending.Filter(me)
		assert.True(t, f.Matches(&Flow{Type: FlowNormal, Status: StatusSent, IsActive: true, ToAreaID: me}))
		assert.False(t, f.Matches(&Flow{Type: FlowNormal, Status: StatusSent, IsActive: false, ToAreaID: me}))
		assert.False(t, f.Matches(&Flow{Type: FlowCopy, Status: StatusSent, IsActive: true, ToAreaID: me}))
		assert.False(t, f.Matches(&Flow{Type: FlowNormal, Status: StatusSent, IsActive: true, ToAreaID: other}))
	})

	t.Run("sent excludes resends", func(t *testing.T) {
		f := InboxSent.Filter(me)
		assert.True(t, f.Matches(&Flow{Type: FlowNormal, Status: StatusSent, FromAreaID: me}))
		assert.False(t, f.Matches(&Flow{Type: FlowNormal, Status: StatusSent, FromAreaID: me, IsToObserved: true}))
	})

	t.Run("copies ignore activity", func(t *testing.T) {
		f := InboxCopies.Filter(me)
		assert.True(t, f.Matches(&Flow{Type: FlowCopy, Status: StatusSent, ToAreaID: me}))
	})

	t.Run("rejected correlates on counterpart", func(t *testing.T) {
		f := InboxRejected.Filter(me)
		row := &Flow{Type: FlowNormal, Status: StatusRejected, IsActive: true, FromAreaID: other, ToAreaID: other, CounterpartAreaID: me}
		assert.True(t, f.Matches(row))
		row.CounterpartAreaID = other
		assert.False(t, f.Matches(row))
	})
}

func TestParseInboxKind(t *testing.T) {
	k, err := ParseInboxKind("observed")
	require.NoError(t, err)
	assert.Equal(t, InboxObserved, k)
	assert.Equal(t, "Observados", k.Title())

	_, err = ParseInboxKind("archive")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestBucketOf(t *testing.T) {
	assert.Equal(t, BucketExternal, BucketOf(AreaExternal))
	assert.Equal(t, BucketExternal, BucketOf(AreaVirtual))
	assert.Equal(t, BucketInternal, BucketOf(AreaInternal))
	assert.Equal(t, OriginBucket(""), BucketOf(""))
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, NormalizePage(0, 0))
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, NormalizePage(3, 1000))
	assert.Equal(t, 20, NormalizePage(3, 10).Offset())
}

func TestUpdateInputApply(t *testing.T) {
	subject := "  new subject "
	folios := 9
	p := &Procedure{Subject: "old", Folios: 1, ToAreaID: 2}

	sync := (&UpdateInput{Folios: &folios}).Apply(p)
	assert.False(t, sync)
	assert.Equal(t, 9, p.Folios)

	sync = (&UpdateInput{Subject: &subject}).Apply(p)
	assert.True(t, sync)
	assert.Equal(t, "new subject", p.Subject)
}

func TestCreateAreaInputValidate(t *testing.T) {
	in := CreateAreaInput{Name: " Mesa de partes ", Initials: "mp", Type: AreaInternal}
	require.NoError(t, in.Validate())
	assert.Equal(t, "Mesa de partes", in.Name)
	assert.Equal(t, "MP", in.Initials)

	bad := CreateAreaInput{Name: "x", Type: "XX"}
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func TestRegisterInputNormalize(t *testing.T) {
	in := RegisterInput{
		Subject:            "  Solicitud  ",
		Sender:             Sender{Name: " Maria Quispe ", Email: " maria@example.com"},
		DestinationAreaIDs: []id.AreaID{3, 0, 4, 3},
		CopyAreaIDs:        []id.AreaID{5, 5},
	}
	in.Normalize()
	assert.Equal(t, "Solicitud", in.Subject)
	assert.Equal(t, "Maria Quispe", in.Sender.Name)
	assert.Equal(t, "maria@example.com", in.Sender.Email)
	assert.Equal(t, []id.AreaID{3, 4}, in.DestinationAreaIDs)
	assert.Equal(t, []id.AreaID{5}, in.CopyAreaIDs)

	empty := RegisterInput{CopyAreaIDs: []id.AreaID{}}
	empty.Normalize()
	assert.Nil(t, empty.CopyAreaIDs)
}
