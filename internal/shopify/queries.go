package shopify

const imageFields = `
fragment ImageFields on Image {
  altText
  url
  width
  height
}
`

const moneyFields = `
fragment MoneyFields on MoneyV2 {
  amount
  currencyCode
}
`

const productFields = `
fragment ProductFields on Product {
  id
  title
  handle
  description
  descriptionHtml
  options {
    name
    values
  }
  featuredImage {
    ...ImageFields
  }
  images(first: 10) {
    nodes {
      ...ImageFields
    }
  }
  variants(first: 100) {
    nodes {
      id
      title
      availableForSale
      quantityAvailable
      selectedOptions {
        name
        value
      }
      price {
        ...MoneyFields
      }
    }
  }
  collections(first: 10) {
    nodes {
      id
      title
    }
  }
}
` + imageFields + moneyFields

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount {
      ...MoneyFields
    }
  }
  lines(first: 100) {
    nodes {
      id
      quantity
      cost {
        amountPerQuantity {
          ...MoneyFields
        }
        subtotalAmount {
          ...MoneyFields
        }
        totalAmount {
          ...MoneyFields
        }
      }
      merchandise {
        ... on ProductVariant {
          id
          title
          image {
            ...ImageFields
          }
          price {
            ...MoneyFields
          }
          selectedOptions {
            name
            value
          }
          product {
            title
            handle
            options {
              name
              values
            }
          }
        }
      }
    }
  }
}
` + imageFields + moneyFields

const userErrorFields = `
userErrors {
  field
  message
}
`

const productsQuery = `
query Products($first: Int!) {
  products(first: $first) {
    edges {
      node {
        ...ProductFields
      }
    }
  }
}
` + productFields

const productByHandleQuery = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) {
    ...ProductFields
  }
}
` + productFields

const createCartMutation = `
mutation CartCreate($id: ID!, $quantity: Int!) {
  cartCreate(input: { lines: [{ merchandiseId: $id, quantity: $quantity }] }) {
    cart {
      ...CartFields
    }
    ` + userErrorFields + `
  }
}
` + cartFields

const addCartLinesMutation = `
mutation CartLinesAdd($cartId: ID!, $merchandiseId: ID!, $quantity: Int!) {
  cartLinesAdd(cartId: $cartId, lines: [{ merchandiseId: $merchandiseId, quantity: $quantity }]) {
    cart {
      ...CartFields
    }
    ` + userErrorFields + `
  }
}
` + cartFields

const removeCartLinesMutation = `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart {
      ...CartFields
    }
    ` + userErrorFields + `
  }
}
` + cartFields

const cartQuery = `
query Cart($id: ID!) {
  cart(id: $id) {
    ...CartFields
  }
}
` + cartFields
