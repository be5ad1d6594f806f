package sqlinline

const QEnsureClientState = `--sql 03ece741-3fc5-463f-bed4-5ecb5fb46745
create table if not exists client_state (
  namespace text not null,
  key text not null,
  value jsonb not null,
  updated_at timestamptz not null default now(),
  primary key (namespace, key)
);
`

const QSelectClientState = `--sql e13b16d4-a812-4490-a578-c5eb71e57b95
select value
from client_state
where namespace = $1::text and key = $2::text
limit 1;
`

const QUpsertClientState = `--sql 7e357e34-427c-4bfb-9049-b913e82d93a9
insert into client_state(namespace, key, value, updated_at)
values ($1::text, $2::text, $3::jsonb, now())
on conflict (namespace, key) do update
set value = excluded.value,
    updated_at = now();
`
